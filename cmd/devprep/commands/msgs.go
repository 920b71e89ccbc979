package commands

// User-facing message constants
const (
	MsgRootShort = "Provision an Ubuntu developer machine"
	MsgRootLong  = `devprep provisions an Ubuntu developer machine: it installs development
packages (apt, snap, pip), sets up Docker, and builds OpenCV from source
with optional CUDA support.

Every action is preceded by a live presence check, so re-running any
command converges without duplicating side effects. There is no rollback:
partially applied runs are fixed by running again.`

	MsgFlagVerbose = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagYes     = "Assume yes for every prompt (unattended mode)"
	MsgFlagDryRun  = "Preview commands without executing them"
	MsgFlagConfig  = "Path to a config file (overrides discovered configs)"

	MsgPrepareShort = "Install the configured development packages"
	MsgPrepareLong  = `Update the apt package index, optionally upgrade installed packages, and
install the configured apt, snap, and pip package lists. Packages already
present are left untouched; optional packages are prompt-gated.`

	MsgDockerShort = "Install the Docker engine"
	MsgDockerLong  = `Set up the Docker apt repository (signing key and source list), install
the engine packages, and verify the installation by running the
hello-world container. A working docker binary makes this a no-op.`

	MsgOpenCVShort = "Build and install OpenCV from source"
	MsgOpenCVLong  = `Install the OpenCV build dependencies, download and extract the source
archives (skipped when the trees already exist), then configure, compile,
and install. CUDA support is offered when a usable CUDA stack is
detected; the FFmpeg backend is prompt-gated.`

	MsgGenconfigShort = "Print the default configuration"
	MsgGenconfigLong  = `Output the built-in default configuration to stdout. Save it to
~/.config/devprep/devprep.toml or /etc/devprep/devprep.toml and edit to
customize package lists, Docker settings, and the OpenCV build.`

	MsgDocsShort = "Show a documentation topic"
	MsgDocsLong  = "Render an embedded documentation topic in the terminal. Without arguments, lists the available topics."
)
