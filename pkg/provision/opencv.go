package provision

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	devpreperr "github.com/devprep/devprep/pkg/errors"
	"github.com/devprep/devprep/pkg/invoker"
	"github.com/devprep/devprep/pkg/pkgmgr"
	"github.com/devprep/devprep/pkg/prompt"
	"github.com/devprep/devprep/pkg/steps"
)

// BuildConfiguration holds the resolved OpenCV build options. It is
// assembled from config and prompt answers before any tool runs, and
// immutable afterwards.
type BuildConfiguration struct {
	CudaEnabled   bool
	CudnnEnabled  bool
	CudaArchBin   string
	FFmpegEnabled bool
	InstallPrefix string
	ContribPath   string
	Jobs          int
}

// CMakeArgs assembles the cmake invocation flags. Pure: nothing happens
// until the invocation itself.
func (b BuildConfiguration) CMakeArgs() []string {
	args := []string{
		"-D", "CMAKE_BUILD_TYPE=Release",
		"-D", "CMAKE_INSTALL_PREFIX=" + b.InstallPrefix,
		"-D", "OPENCV_GENERATE_PKGCONFIG=ON",
		"-D", "BUILD_EXAMPLES=OFF",
	}
	if b.ContribPath != "" {
		args = append(args, "-D", "OPENCV_EXTRA_MODULES_PATH="+b.ContribPath)
	}
	args = append(args, "-D", onOff("WITH_FFMPEG", b.FFmpegEnabled))
	args = append(args, "-D", onOff("WITH_CUDA", b.CudaEnabled))
	if b.CudaEnabled {
		args = append(args, "-D", onOff("WITH_CUDNN", b.CudnnEnabled))
		args = append(args, "-D", onOff("OPENCV_DNN_CUDA", b.CudnnEnabled))
		if b.CudaArchBin != "" {
			args = append(args, "-D", "CUDA_ARCH_BIN="+b.CudaArchBin)
		}
	}
	args = append(args, "..")
	return args
}

func onOff(flag string, enabled bool) string {
	if enabled {
		return flag + "=ON"
	}
	return flag + "=OFF"
}

// OpenCV builds OpenCV from source: build dependencies, CUDA
// detection, source download and extraction (skipped when the trees
// already exist), CMake configure, compile, install, ldconfig.
func (p *Provisioner) OpenCV(ctx context.Context) (steps.RunResult, error) {
	cfg := p.cfg.OpenCV

	plan := []string{
		"install the OpenCV build dependencies",
		fmt.Sprintf("download and extract OpenCV %s sources into %s", cfg.Version, cfg.WorkDir),
		fmt.Sprintf("configure, compile, and install to %s", cfg.InstallPrefix),
	}
	if err := p.confirmSummary("opencv", plan); err != nil {
		return steps.RunResult{}, err
	}

	build := p.resolveBuildConfiguration(ctx)

	pipeline := []steps.Step{
		p.packagesStep("install build dependencies",
			pkgmgr.SpecsFromEntries(cfg.BuildPackages, pkgmgr.ManagerApt)),
		{Name: "download opencv sources", Fatal: true, Run: p.downloadSources},
		{Name: "cmake configure", Fatal: true, Run: func(ctx context.Context) error {
			return p.cmakeConfigure(ctx, build)
		}},
		{Name: "build opencv", Fatal: true, Run: func(ctx context.Context) error {
			jobs := build.Jobs
			if jobs == 0 {
				jobs = p.detectJobs(ctx)
			}
			_, err := p.inv.Invoke(ctx, invoker.Request{
				Command:     "make",
				Args:        []string{"-j" + strconv.Itoa(jobs)},
				WorkingDir:  p.buildDir(),
				Interactive: true,
			})
			return err
		}},
		{Name: "install opencv", Fatal: true, Run: func(ctx context.Context) error {
			_, err := p.inv.Invoke(ctx, invoker.Request{
				Command:    "make",
				Args:       []string{"install"},
				WorkingDir: p.buildDir(),
			})
			return err
		}},
		{Name: "refresh linker cache", Run: func(ctx context.Context) error {
			_, err := p.inv.Invoke(ctx, invoker.Request{Command: "ldconfig"})
			return err
		}},
	}

	return p.runner.Run(ctx, pipeline), nil
}

// resolveBuildConfiguration turns detection results and prompt answers
// into an immutable BuildConfiguration. The CUDA prompt only appears
// when a usable CUDA stack was detected; on machines without one the
// question never shows up.
func (p *Provisioner) resolveBuildConfiguration(ctx context.Context) BuildConfiguration {
	cfg := p.cfg.OpenCV

	build := BuildConfiguration{
		InstallPrefix: cfg.InstallPrefix,
		CudaArchBin:   cfg.CudaArchBin,
		Jobs:          cfg.Jobs,
		ContribPath:   filepath.Join("..", "..", cfg.ContribDirName(), "modules"),
	}

	support := p.detectCUDA(ctx)
	if support.Usable() {
		build.CudaEnabled = p.gate.Confirm("CUDA toolkit detected. Build OpenCV with CUDA support?") == prompt.Accepted
		build.CudnnEnabled = build.CudaEnabled && support.CudnnPresent
	}

	build.FFmpegEnabled = p.gate.Confirm("Build with FFmpeg support?") == prompt.Accepted

	return build
}

func (p *Provisioner) sourceDir() string {
	return filepath.Join(p.cfg.OpenCV.WorkDir, p.cfg.OpenCV.SourceDirName())
}

func (p *Provisioner) buildDir() string {
	return filepath.Join(p.sourceDir(), "build")
}

// downloadSources fetches and extracts the opencv and opencv_contrib
// archives. An already extracted tree is left untouched: zero downloads,
// zero extractions.
func (p *Provisioner) downloadSources(ctx context.Context) error {
	cfg := p.cfg.OpenCV

	archives := []struct {
		url     string
		zipName string
		dir     string
	}{
		{cfg.SourceURL, "opencv.zip", filepath.Join(cfg.WorkDir, cfg.SourceDirName())},
		{cfg.ContribURL, "opencv_contrib.zip", filepath.Join(cfg.WorkDir, cfg.ContribDirName())},
	}

	for _, archive := range archives {
		if dirExists(archive.dir) {
			p.logger.Info().Str("dir", archive.dir).Msg("Source tree already present, skipping download")
			continue
		}

		p.fetchedSources = true
		if _, err := p.inv.Invoke(ctx, invoker.Request{
			Command:    "wget",
			Args:       []string{"-O", archive.zipName, archive.url},
			WorkingDir: cfg.WorkDir,
			Timeout:    p.cfg.Invoke.NetworkTimeout.Std(),
		}); err != nil {
			return err
		}

		if _, err := p.inv.Invoke(ctx, invoker.Request{
			Command:    "unzip",
			Args:       []string{"-q", "-o", archive.zipName},
			WorkingDir: cfg.WorkDir,
		}); err != nil {
			return err
		}
	}

	return nil
}

func (p *Provisioner) cmakeConfigure(ctx context.Context, build BuildConfiguration) error {
	// fetchedSources covers dry-run, where the download was only
	// planned and the tree legitimately does not exist yet.
	if !dirExists(p.sourceDir()) && !p.fetchedSources {
		return devpreperr.Newf(devpreperr.ErrResourceMissing,
			"opencv source tree not found at %s", p.sourceDir())
	}

	if _, err := p.inv.Invoke(ctx, invoker.Request{
		Command: "mkdir",
		Args:    []string{"-p", p.buildDir()},
	}); err != nil {
		return err
	}

	_, err := p.inv.Invoke(ctx, invoker.Request{
		Command:    "cmake",
		Args:       build.CMakeArgs(),
		WorkingDir: p.buildDir(),
	})
	return err
}

// detectJobs derives make parallelism from nproc, falling back to the
// local CPU count.
func (p *Provisioner) detectJobs(ctx context.Context) int {
	result, err := p.inv.Invoke(ctx, invoker.Request{
		Command:  "nproc",
		ReadOnly: true,
	})
	if err == nil {
		if n, convErr := strconv.Atoi(strings.TrimSpace(result.Stdout)); convErr == nil && n > 0 {
			return n
		}
	}
	return runtime.NumCPU()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
