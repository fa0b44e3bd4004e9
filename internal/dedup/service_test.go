package dedup

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryDirectory applies NameKey.Matches over in-memory records, standing in
// for the SQL policy in Repository.
type memoryDirectory struct {
	applicantEmails []string
	residentEmails  []string

	applicantNames []NameKey
	residentNames  []NameKey
	familyNames    []NameKey
}

func (m *memoryDirectory) ApplicantEmailExists(_ context.Context, email string) (bool, error) {
	return containsFold(m.applicantEmails, email), nil
}

func (m *memoryDirectory) ResidentEmailExists(_ context.Context, email string) (bool, error) {
	return containsFold(m.residentEmails, email), nil
}

func (m *memoryDirectory) ApplicantNameExists(_ context.Context, key NameKey) (bool, error) {
	return anyMatch(m.applicantNames, key), nil
}

func (m *memoryDirectory) ResidentNameExists(_ context.Context, key NameKey) (bool, error) {
	return anyMatch(m.residentNames, key), nil
}

func (m *memoryDirectory) FamilyMemberNameExists(_ context.Context, key NameKey) (bool, error) {
	return anyMatch(m.familyNames, key), nil
}

func containsFold(haystack []string, needle string) bool {
	for _, s := range haystack {
		if strings.EqualFold(s, needle) {
			return true
		}
	}
	return false
}

func anyMatch(keys []NameKey, key NameKey) bool {
	for _, k := range keys {
		if k.Matches(key) {
			return true
		}
	}
	return false
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestCheckNoDuplicate(t *testing.T) {
	svc := NewService(&memoryDirectory{})

	verdict, err := svc.Check(context.Background(), Candidate{
		Email:     "juan@x.com",
		FirstName: "Juan",
		LastName:  "Cruz",
	})
	require.NoError(t, err)
	assert.Equal(t, VerdictNoDuplicate, verdict)
	assert.False(t, verdict.IsDuplicate())
}

func TestCheckEmailAgainstPendingApplicants(t *testing.T) {
	svc := NewService(&memoryDirectory{
		applicantEmails: []string{"juan@x.com"},
	})

	verdict, err := svc.Check(context.Background(), Candidate{
		Email:     "JUAN@X.COM",
		FirstName: "Juan",
		LastName:  "Cruz",
	})
	require.NoError(t, err)
	assert.Equal(t, VerdictPendingDuplicateEmail, verdict)
}

func TestCheckEmailAgainstResidents(t *testing.T) {
	svc := NewService(&memoryDirectory{
		residentEmails: []string{"maria@x.com"},
	})

	verdict, err := svc.Check(context.Background(), Candidate{
		Email:     "maria@x.com",
		FirstName: "Maria",
		LastName:  "Santos",
	})
	require.NoError(t, err)
	assert.Equal(t, VerdictApprovedDuplicateEmail, verdict)
}

func TestCheckPendingEmailWinsOverApproved(t *testing.T) {
	svc := NewService(&memoryDirectory{
		applicantEmails: []string{"juan@x.com"},
		residentEmails:  []string{"juan@x.com"},
	})

	verdict, err := svc.Check(context.Background(), Candidate{
		Email:     "juan@x.com",
		FirstName: "Juan",
		LastName:  "Cruz",
	})
	require.NoError(t, err)
	assert.Equal(t, VerdictPendingDuplicateEmail, verdict)
}

func TestCheckNameAgainstFamilyMembers(t *testing.T) {
	svc := NewService(&memoryDirectory{
		familyNames: []NameKey{
			{FirstName: "Pedro", LastName: "Reyes", DateOfBirth: date(2010, time.June, 4)},
		},
	})

	// Dependents carry no email; only the name policy applies.
	verdict, err := svc.Check(context.Background(), Candidate{
		FirstName:   "pedro",
		LastName:    "reyes",
		DateOfBirth: date(2010, time.June, 4),
	})
	require.NoError(t, err)
	assert.Equal(t, VerdictDependentDuplicateName, verdict)
}

func TestCheckNamePrecedence(t *testing.T) {
	key := NameKey{FirstName: "Ana", LastName: "Lim"}
	svc := NewService(&memoryDirectory{
		applicantNames: []NameKey{key},
		residentNames:  []NameKey{key},
		familyNames:    []NameKey{key},
	})

	verdict, err := svc.Check(context.Background(), Candidate{
		FirstName: "Ana",
		LastName:  "Lim",
	})
	require.NoError(t, err)
	assert.Equal(t, VerdictPendingDuplicateName, verdict)
}

func TestNameKeyMatches(t *testing.T) {
	tests := []struct {
		name string
		a, b NameKey
		want bool
	}{
		{
			name: "exact match",
			a:    NameKey{FirstName: "Juan", LastName: "Cruz", MiddleInitial: "D"},
			b:    NameKey{FirstName: "Juan", LastName: "Cruz", MiddleInitial: "D"},
			want: true,
		},
		{
			name: "case-insensitive",
			a:    NameKey{FirstName: "JUAN", LastName: "cruz", MiddleInitial: "d"},
			b:    NameKey{FirstName: "juan", LastName: "CRUZ", MiddleInitial: "D"},
			want: true,
		},
		{
			name: "omitted middle initial matches any",
			a:    NameKey{FirstName: "Juan", LastName: "Cruz"},
			b:    NameKey{FirstName: "Juan", LastName: "Cruz", MiddleInitial: "D"},
			want: true,
		},
		{
			name: "conflicting middle initials",
			a:    NameKey{FirstName: "Juan", LastName: "Cruz", MiddleInitial: "D"},
			b:    NameKey{FirstName: "Juan", LastName: "Cruz", MiddleInitial: "R"},
			want: false,
		},
		{
			name: "different last name",
			a:    NameKey{FirstName: "Juan", LastName: "Cruz"},
			b:    NameKey{FirstName: "Juan", LastName: "Reyes"},
			want: false,
		},
		{
			name: "same name different birth date",
			a:    NameKey{FirstName: "Juan", LastName: "Cruz", DateOfBirth: date(1990, time.January, 1)},
			b:    NameKey{FirstName: "Juan", LastName: "Cruz", DateOfBirth: date(1991, time.January, 1)},
			want: false,
		},
		{
			name: "missing birth date on one side is ignored",
			a:    NameKey{FirstName: "Juan", LastName: "Cruz", DateOfBirth: date(1990, time.January, 1)},
			b:    NameKey{FirstName: "Juan", LastName: "Cruz"},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Matches(tt.b))
			assert.Equal(t, tt.want, tt.b.Matches(tt.a), "policy must be symmetric")
		})
	}
}
