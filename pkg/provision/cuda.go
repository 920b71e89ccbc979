package provision

import (
	"context"

	"github.com/devprep/devprep/pkg/invoker"
)

// CudaSupport is the result of probing the host for a usable CUDA
// stack.
type CudaSupport struct {
	DriverPresent  bool
	ToolkitPresent bool
	CudnnPresent   bool
}

// Usable reports whether a CUDA build can be attempted at all.
func (c CudaSupport) Usable() bool {
	return c.DriverPresent && c.ToolkitPresent
}

// detectCUDA probes for the NVIDIA driver, the CUDA toolkit, and cuDNN
// headers. When nvidia-smi is not even on PATH the machine has no
// NVIDIA stack and no further probing happens.
func (p *Provisioner) detectCUDA(ctx context.Context) CudaSupport {
	var support CudaSupport

	if !p.inv.LookPath("nvidia-smi") {
		p.logger.Debug().Msg("nvidia-smi not on PATH, skipping CUDA detection")
		return support
	}

	if _, err := p.inv.Invoke(ctx, invoker.Request{
		Command:  "nvidia-smi",
		ReadOnly: true,
	}); err == nil {
		support.DriverPresent = true
	}

	if p.inv.LookPath("nvcc") {
		if _, err := p.inv.Invoke(ctx, invoker.Request{
			Command:  "nvcc",
			Args:     []string{"--version"},
			ReadOnly: true,
		}); err == nil {
			support.ToolkitPresent = true
		}
	}

	if _, err := p.inv.Invoke(ctx, invoker.Request{
		Command:  "sh",
		Args:     []string{"-c", "test -e /usr/include/cudnn.h || test -e /usr/include/x86_64-linux-gnu/cudnn_version.h"},
		ReadOnly: true,
	}); err == nil {
		support.CudnnPresent = true
	}

	p.logger.Info().
		Bool("driver", support.DriverPresent).
		Bool("toolkit", support.ToolkitPresent).
		Bool("cudnn", support.CudnnPresent).
		Msg("CUDA detection finished")

	return support
}
