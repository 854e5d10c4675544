package cmd

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"

	"github.com/spiffcs/stalemate/internal/log"
)

// profiler writes the CPU profile, heap profile and execution trace requested
// on the command line for the duration of a pipeline command.
type profiler struct {
	cpuPath   string
	memPath   string
	tracePath string

	cpu *os.File
	trc *os.File
}

func newProfiler(opts *Options) *profiler {
	return &profiler{cpuPath: opts.CPUProfile, memPath: opts.MemProfile, tracePath: opts.Trace}
}

// start begins CPU profiling and tracing. On error nothing is left running.
func (p *profiler) start() error {
	if p.cpuPath != "" {
		f, err := os.Create(p.cpuPath)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		p.cpu = f
	}

	if p.tracePath != "" {
		f, err := os.Create(p.tracePath)
		if err == nil {
			if err = trace.Start(f); err != nil {
				f.Close()
			}
		}
		if err != nil {
			p.stopCPU()
			return fmt.Errorf("could not start trace: %w", err)
		}
		p.trc = f
	}
	return nil
}

// stop ends profiling and writes the heap profile. Failures are logged since
// the command has already produced its results.
func (p *profiler) stop() {
	if p.trc != nil {
		trace.Stop()
		closeProfile(p.trc, "trace")
		p.trc = nil
	}
	p.stopCPU()

	if p.memPath == "" {
		return
	}
	f, err := os.Create(p.memPath)
	if err != nil {
		log.Warn("could not create memory profile", "path", p.memPath, "error", err)
		return
	}
	defer closeProfile(f, "memory profile")
	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		log.Warn("could not write memory profile", "path", p.memPath, "error", err)
	}
}

func (p *profiler) stopCPU() {
	if p.cpu == nil {
		return
	}
	pprof.StopCPUProfile()
	closeProfile(p.cpu, "CPU profile")
	p.cpu = nil
}

func closeProfile(f *os.File, kind string) {
	if err := f.Close(); err != nil {
		log.Warn("could not close "+kind, "path", f.Name(), "error", err)
	}
}
