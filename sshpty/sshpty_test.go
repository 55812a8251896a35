package sshpty

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOptionsWithDefaults(t *testing.T) {
	o := Options{}.withDefaults()
	assert.Equal(t, 22, o.Port)
	assert.Equal(t, 20*time.Second, o.ReadyTimeout)
	assert.Equal(t, 15*time.Second, o.KeepaliveInterval)
	assert.Equal(t, 3, o.KeepaliveMax)
}

func TestOptionsWithDefaultsPreservesSetValues(t *testing.T) {
	o := Options{Port: 2222, ReadyTimeout: time.Second}.withDefaults()
	assert.Equal(t, 2222, o.Port)
	assert.Equal(t, time.Second, o.ReadyTimeout)
}

func TestConnectErrorWrapsUnderlying(t *testing.T) {
	inner := errors.New("dial tcp: timeout")
	err := &ConnectError{Op: "dial", Err: inner}
	assert.Contains(t, err.Error(), "dial")
	assert.Contains(t, err.Error(), "timeout")
	assert.ErrorIs(t, err, inner)
}

func TestShellErrorWrapsUnderlying(t *testing.T) {
	inner := errors.New("channel closed")
	err := &ShellError{Op: "request-pty", Err: inner}
	assert.Contains(t, err.Error(), "request-pty")
	assert.ErrorIs(t, err, inner)
}

func TestConnectRejectsUnreachableHost(t *testing.T) {
	_, err := Connect(Options{Host: "127.0.0.1", Port: 1, User: "u", Password: "p", ReadyTimeout: 200 * time.Millisecond})
	a := assert.New(t)
	a.Error(err)
	var ce *ConnectError
	a.True(errors.As(err, &ce))
}
