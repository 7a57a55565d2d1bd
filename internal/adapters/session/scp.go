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
	"bufio"
	"fmt"
	"io"
	"os"
	"path"
)

// uploadMode is the fixed permission mode declared for every transfer.
const uploadMode = "0644"

// Upload streams the local file to the remote path using the scp sink
// protocol: a size-declared header, the file bytes, then a zero byte, each
// acknowledged by the remote side. A failed transfer may leave a partial
// remote file; it is not rolled back.
func (t *sshTransport) Upload(localPath, remotePath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open local file %s: %w", localPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat local file %s: %w", localPath, err)
	}

	sess, err := t.client.NewSession()
	if err != nil {
		return fmt.Errorf("create transfer channel: %w", err)
	}
	defer sess.Close()

	stdin, err := sess.StdinPipe()
	if err != nil {
		return fmt.Errorf("create transfer channel: %w", err)
	}
	stdout, err := sess.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create transfer channel: %w", err)
	}
	acks := bufio.NewReader(stdout)

	dir, base := path.Split(remotePath)
	if dir == "" {
		dir = "."
	}
	if err := sess.Start("scp -qt " + dir); err != nil {
		return fmt.Errorf("start remote transfer: %w", err)
	}

	if err := readAck(acks); err != nil {
		return fmt.Errorf("remote transfer rejected: %w", err)
	}
	if _, err := fmt.Fprintf(stdin, "C%s %d %s\n", uploadMode, info.Size(), base); err != nil {
		return fmt.Errorf("send transfer header: %w", err)
	}
	if err := readAck(acks); err != nil {
		return fmt.Errorf("remote rejected transfer header: %w", err)
	}
	if _, err := io.Copy(stdin, f); err != nil {
		return fmt.Errorf("stream file to %s: %w", remotePath, err)
	}
	if _, err := stdin.Write([]byte{0}); err != nil {
		return fmt.Errorf("finish transfer: %w", err)
	}
	if err := readAck(acks); err != nil {
		return fmt.Errorf("remote rejected file contents: %w", err)
	}
	if err := stdin.Close(); err != nil {
		return fmt.Errorf("finish transfer: %w", err)
	}
	if err := sess.Wait(); err != nil {
		return fmt.Errorf("remote transfer failed: %w", err)
	}
	return nil
}

// readAck consumes one scp acknowledgement: 0 is success, 1 and 2 are
// followed by an error line.
func readAck(r *bufio.Reader) error {
	code, err := r.ReadByte()
	if err != nil {
		return err
	}
	if code == 0 {
		return nil
	}
	msg, _ := r.ReadString('\n')
	return fmt.Errorf("scp error %d: %s", code, msg)
}
