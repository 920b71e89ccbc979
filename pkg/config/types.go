package config

import "time"

// Duration wraps time.Duration so config files read and write values
// like "10m" instead of raw nanosecond counts.
type Duration time.Duration

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Config is the fully merged devprep configuration.
type Config struct {
	Invoke   InvokeConfig   `koanf:"invoke" toml:"invoke" yaml:"invoke"`
	Packages PackagesConfig `koanf:"packages" toml:"packages" yaml:"packages"`
	Docker   DockerConfig   `koanf:"docker" toml:"docker" yaml:"docker"`
	OpenCV   OpenCVConfig   `koanf:"opencv" toml:"opencv" yaml:"opencv"`
}

// InvokeConfig bounds external tool invocations.
type InvokeConfig struct {
	// NetworkTimeout applies to downloads (wget, curl, apt update);
	// these are the calls that hang on network stalls.
	NetworkTimeout Duration `koanf:"network_timeout" toml:"network_timeout" yaml:"network_timeout"`
	// CommandTimeout applies to everything else. Zero means unbounded,
	// which compiles and long package installs need.
	CommandTimeout Duration `koanf:"command_timeout" toml:"command_timeout" yaml:"command_timeout"`
}

// PackageEntry is one package to ensure installed.
type PackageEntry struct {
	Name string `koanf:"name" toml:"name" yaml:"name"`
	// Optional packages are prompt-gated; declining skips them without
	// failing the run.
	Optional bool `koanf:"optional" toml:"optional,omitempty" yaml:"optional,omitempty"`
	// Classic marks snaps that need --classic confinement.
	Classic bool `koanf:"classic" toml:"classic,omitempty" yaml:"classic,omitempty"`
}

// PackagesConfig holds the package lists for the prepare pipeline.
type PackagesConfig struct {
	Apt  []PackageEntry `koanf:"apt" toml:"apt" yaml:"apt"`
	Snap []PackageEntry `koanf:"snap" toml:"snap" yaml:"snap"`
	Pip  []PackageEntry `koanf:"pip" toml:"pip" yaml:"pip"`
}

// DockerConfig drives the docker pipeline.
type DockerConfig struct {
	KeyURL         string   `koanf:"key_url" toml:"key_url" yaml:"key_url"`
	KeyringPath    string   `koanf:"keyring_path" toml:"keyring_path" yaml:"keyring_path"`
	ListPath       string   `koanf:"list_path" toml:"list_path" yaml:"list_path"`
	RepoURL        string   `koanf:"repo_url" toml:"repo_url" yaml:"repo_url"`
	Channel        string   `koanf:"channel" toml:"channel" yaml:"channel"`
	Packages       []string `koanf:"packages" toml:"packages" yaml:"packages"`
	AddUserToGroup bool     `koanf:"add_user_to_group" toml:"add_user_to_group" yaml:"add_user_to_group"`
}

// OpenCVConfig drives the opencv pipeline.
type OpenCVConfig struct {
	Version       string         `koanf:"version" toml:"version" yaml:"version"`
	SourceURL     string         `koanf:"source_url" toml:"source_url" yaml:"source_url"`
	ContribURL    string         `koanf:"contrib_url" toml:"contrib_url" yaml:"contrib_url"`
	WorkDir       string         `koanf:"work_dir" toml:"work_dir" yaml:"work_dir"`
	InstallPrefix string         `koanf:"install_prefix" toml:"install_prefix" yaml:"install_prefix"`
	// Jobs is the make parallelism; zero means one per CPU.
	Jobs          int            `koanf:"jobs" toml:"jobs" yaml:"jobs"`
	CudaArchBin   string         `koanf:"cuda_arch_bin" toml:"cuda_arch_bin" yaml:"cuda_arch_bin"`
	BuildPackages []PackageEntry `koanf:"build_packages" toml:"build_packages" yaml:"build_packages"`
}

// SourceDirName returns the directory the opencv archive extracts to.
func (c OpenCVConfig) SourceDirName() string {
	return "opencv-" + c.Version
}

// ContribDirName returns the directory the contrib archive extracts to.
func (c OpenCVConfig) ContribDirName() string {
	return "opencv_contrib-" + c.Version
}
