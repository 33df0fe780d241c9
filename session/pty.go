package session

import (
	"io"
	"os/exec"

	"github.com/creack/pty"

	"shortcut-panel/logging"
)

// Default shell for new sessions.
const DefaultShell = "bash"

var DefaultShellArgs = []string{"--login"}

func ptySpawner(shell string, args []string) SpawnFunc {
	if shell == "" {
		shell, args = DefaultShell, DefaultShellArgs
	}
	args = append([]string(nil), args...)
	return func(s *Session, onExit func(string)) error {
		cmd := exec.Command(shell, args...)
		cmd.Env = append(cmd.Environ(), "TERM=xterm-256color")

		ptmx, err := pty.Start(cmd)
		if err != nil {
			return err
		}
		s.ptmx = ptmx
		s.cmd = cmd

		go readLoop(s, onExit)
		return nil
	}
}

func readLoop(s *Session, onExit func(id string)) {
	buf := make([]byte, 4096)
	for {
		n, err := s.ptmx.Read(buf)
		if n > 0 {
			s.publish(buf[:n])
		}
		if err != nil {
			if err != io.EOF {
				logging.Debug().Err(err).Str("session", s.ID).Msg("PTY read ended")
			}
			_ = s.cmd.Wait()
			s.markExited()
			onExit(s.ID)
			return
		}
	}
}
