package email

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// silentSMTPServer accepts connections but never sends the SMTP greeting,
// imitating a hung mail server.
func silentSMTPServer(t *testing.T) (host, port string) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				io.Copy(io.Discard, c)
			}(conn)
		}
	}()

	host, port, err = net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	return host, port
}

func TestSendFailsWithinConfiguredTimeout(t *testing.T) {
	host, port := silentSMTPServer(t)
	service := NewService(host, port, "", "", "e-Botika", 200*time.Millisecond)

	start := time.Now()
	err := service.SendVerificationCode(context.Background(), "juan@x.com", "Juan", "123456")

	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestSendHonorsContextDeadline(t *testing.T) {
	host, port := silentSMTPServer(t)
	// Generous service timeout; the caller's deadline must win
	service := NewService(host, port, "", "", "e-Botika", 10*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := service.SendResetOTP(ctx, "maria@x.com", "Maria", "654321")

	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestSendFailsFastWhenNothingListens(t *testing.T) {
	// Reserve a port and close it so the dial is refused
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	host, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	ln.Close()

	service := NewService(host, port, "", "", "e-Botika", time.Second)

	err = service.SendApprovalRequest(context.Background(), "bella@barangay.gov.ph", "Bella Ramos", "Juan Cruz", "Purok 3")
	assert.Error(t, err)
}
