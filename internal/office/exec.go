// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package office

import (
	"context"
	"os"
	"os/exec"
	"runtime"
	"sync"
	"time"
)

// stopGrace is how long a stopped process may take to exit before it is
// killed.
var stopGrace = 5 * time.Second

// executor abstracts process execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
	Start(name string, args ...string) (process, error)
}

// process is a started background program.
type process interface {
	// Exited reports whether the program has terminated.
	Exited() bool
	// Stop asks the program to exit and kills it after stopGrace.
	Stop() error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (osExecutor) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

func (osExecutor) Start(name string, args ...string) (process, error) {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	p := &osProcess{cmd: cmd, done: make(chan struct{})}
	go func() {
		p.waitErr = cmd.Wait()
		close(p.done)
	}()
	return p, nil
}

type osProcess struct {
	cmd     *exec.Cmd
	done    chan struct{}
	waitErr error
	once    sync.Once
}

func (p *osProcess) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

func (p *osProcess) Stop() error {
	var err error
	p.once.Do(func() {
		if p.Exited() {
			return
		}
		if runtime.GOOS == "windows" {
			err = p.cmd.Process.Kill()
		} else {
			err = p.cmd.Process.Signal(os.Interrupt)
		}
		select {
		case <-p.done:
		case <-time.After(stopGrace):
			err = p.cmd.Process.Kill()
			<-p.done
		}
	})
	return err
}
