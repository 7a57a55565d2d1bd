// Copyright 2025.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/Qingbolan/Print-SoC/internal/core/domain"
)

// connectTimeout bounds the TCP dial race. Handshake/auth over remote
// links are expensive, which is why the session is kept alive afterwards.
const connectTimeout = 3 * time.Second

type sshTransport struct {
	client *ssh.Client
}

// dialSSH resolves the host, races TCP dials to all candidate addresses
// and performs the SSH handshake over the winning connection. Racing
// bounds worst-case latency when some addresses of a round-robin DNS
// record are unreachable.
func dialSSH(cfg domain.ConnectionConfig) (transport, error) {
	addrs, err := net.LookupHost(cfg.Host)
	if err != nil || len(addrs) == 0 {
		return nil, &domain.ConnectionError{
			Reason: fmt.Sprintf("could not resolve %s", cfg.Host),
			Err:    err,
		}
	}

	conn, addr, err := raceDial(addrs, cfg.Port)
	if err != nil {
		return nil, err
	}

	auth, err := authMethod(cfg.Auth)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	clientCfg := &ssh.ClientConfig{
		User: cfg.Username,
		Auth: []ssh.AuthMethod{auth},
		// The cluster rotates host keys across its login nodes; pinning is
		// left to the user's known_hosts workflow outside this client.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         connectTimeout,
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, clientCfg)
	if err != nil {
		_ = conn.Close()
		reason := "handshake failed"
		if strings.Contains(err.Error(), "unable to authenticate") {
			reason = "authentication rejected"
		}
		return nil, &domain.ConnectionError{Reason: reason, Err: err}
	}

	return &sshTransport{client: ssh.NewClient(sshConn, chans, reqs)}, nil
}

// raceDial attempts all candidate addresses in parallel; the first
// successful connection wins and the rest are abandoned.
func raceDial(addrs []string, port int) (net.Conn, string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	type result struct {
		conn net.Conn
		addr string
		err  error
	}
	results := make(chan result, len(addrs))

	for _, a := range addrs {
		addr := net.JoinHostPort(a, fmt.Sprintf("%d", port))
		go func() {
			d := net.Dialer{KeepAlive: 30 * time.Second}
			conn, err := d.DialContext(ctx, "tcp", addr)
			results <- result{conn: conn, addr: addr, err: err}
		}()
	}

	var lastErr error
	for i := 0; i < len(addrs); i++ {
		res := <-results
		if res.err == nil {
			// Drain the losers so their connections get closed.
			go func(remaining int) {
				for j := 0; j < remaining; j++ {
					if r := <-results; r.conn != nil {
						_ = r.conn.Close()
					}
				}
			}(len(addrs) - i - 1)
			cancel()
			return res.conn, res.addr, nil
		}
		lastErr = res.err
	}
	return nil, "", &domain.ConnectionError{
		Reason: fmt.Sprintf("no address reachable within %s", connectTimeout),
		Err:    lastErr,
	}
}

// authMethod maps the credential variant to an SSH auth method.
func authMethod(auth domain.Auth) (ssh.AuthMethod, error) {
	switch a := auth.(type) {
	case domain.PasswordAuth:
		return ssh.Password(a.Password), nil
	case domain.KeyAuth:
		key, err := os.ReadFile(a.KeyPath)
		if err != nil {
			return nil, &domain.ConnectionError{Reason: "could not read private key", Err: err}
		}
		var signer ssh.Signer
		if a.Passphrase != "" {
			signer, err = ssh.ParsePrivateKeyWithPassphrase(key, []byte(a.Passphrase))
		} else {
			signer, err = ssh.ParsePrivateKey(key)
		}
		if err != nil {
			return nil, &domain.ConnectionError{Reason: "could not parse private key", Err: err}
		}
		return ssh.PublicKeys(signer), nil
	default:
		return nil, &domain.ConnectionError{Reason: "no credentials supplied"}
	}
}

// Ping sends a keep-alive global request and waits for the reply.
func (t *sshTransport) Ping() error {
	_, _, err := t.client.SendRequest("keepalive@printsoc", true, nil)
	return err
}

func (t *sshTransport) Close() error {
	return t.client.Close()
}

// Execute runs one command over a fresh channel, draining stdout and
// stderr, and maps a nonzero exit status to *domain.CommandError. Retry
// policy, if any, belongs to the caller.
func (t *sshTransport) Execute(command string) (string, error) {
	sess, err := t.client.NewSession()
	if err != nil {
		return "", fmt.Errorf("open channel: %w", err)
	}
	defer sess.Close()

	var stdout, stderr bytes.Buffer
	sess.Stdout = &stdout
	sess.Stderr = &stderr

	if err := sess.Run(command); err != nil {
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			diag := strings.TrimSpace(stderr.String())
			if diag == "" {
				diag = strings.TrimSpace(stdout.String())
			}
			return "", &domain.CommandError{ExitCode: exitErr.ExitStatus(), Output: diag}
		}
		return "", fmt.Errorf("run remote command: %w", err)
	}
	return stdout.String(), nil
}
