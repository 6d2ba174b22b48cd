// Command opencrunctl is a small harness around the opencrun runtime: it
// brings up the host's CPU device, lists what it discovers, and can run a
// canned demonstration kernel (vecadd) against it while printing the
// resulting profiling trace.
package main

import (
	"fmt"

	"github.com/alecthomas/kong"
	"github.com/sirupsen/logrus"

	"github.com/opencrun-go/opencrun/config"
	"github.com/opencrun-go/opencrun/core"
	"github.com/opencrun-go/opencrun/cpu"
	"github.com/opencrun-go/opencrun/hardware"
)

type cliContext struct {
	platform *core.Platform
	device   *cpu.Device
	log      *logrus.Entry
}

type CLI struct {
	LogLevel string `default:"info" placeholder:"<debug|info|warn|error>" help:"logging level"`
	Pin      bool   `help:"pin worker threads to their logical CPU via sched_setaffinity"`

	Devices DevicesCmd `cmd:"" help:"list discovered platforms and devices"`
	Run     RunCmd     `cmd:"" help:"run a built-in demonstration kernel and print its profile"`
}

func (c *CLI) bootstrap() (*cliContext, error) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger := logrus.New()
	logger.SetLevel(level)
	log := logrus.NewEntry(logger)

	cfg := config.FromEnvironment()
	if cfg.InternalDiagnostic {
		logger.SetLevel(logrus.DebugLevel)
	}

	topo := hardware.Discover()
	dev := cpu.NewDevice(topo, cpu.Config{
		GlobalMemoryBytes: 256 << 20,
		LocalMemoryBytes:  64 << 10,
		PinThreads:        c.Pin,
		ProfiledCounters:  len(cfg.ProfiledCounters) > 0,
	}, log)

	platform := core.NewPlatform("opencrun", cfg.Prefix, core.RuntimeVersionString()+" "+cfg.PrefixLLVM)
	platform.RegisterDevice(dev)

	return &cliContext{platform: platform, device: dev, log: log}, nil
}

type DevicesCmd struct{}

func (cmd *DevicesCmd) Run(cli *CLI) error {
	cctx, err := cli.bootstrap()
	if err != nil {
		return err
	}
	for _, d := range cctx.platform.AllDevices() {
		info := d.Info()
		fmt.Printf("%v %s (vendor=%s, compute_units=%d, max_work_group_size=%d)\n",
			info.Kind, info.Name, info.Vendor, info.MaxComputeUnits, info.MaxWorkGroupSize)
	}
	return nil
}

type RunCmd struct {
	Kernel string `default:"vecadd" placeholder:"<vecadd>" help:"which built-in kernel to run"`
	N      int    `default:"1024" help:"number of elements"`
	Local  int    `default:"64" help:"work-group size"`
}

func (cmd *RunCmd) Run(cli *CLI) error {
	cctx, err := cli.bootstrap()
	if err != nil {
		return err
	}

	ctx, err := core.NewContext([]core.Device{cctx.device}, func(errInfo string, _ []byte) {
		cctx.log.Errorf("context diagnostic: %s", errInfo)
	})
	if err != nil {
		return err
	}
	queue, err := core.NewCommandQueue(ctx, cctx.device, core.InOrderQueue, true)
	if err != nil {
		return err
	}

	switch cmd.Kernel {
	case "vecadd":
		return runVecAdd(cctx, ctx, queue, cmd.N, cmd.Local)
	default:
		return fmt.Errorf("unknown kernel %q", cmd.Kernel)
	}
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli, kong.Description("opencrun host harness: discover the CPU device and run demonstration kernels against it"))
	err := kctx.Run(&cli)
	kctx.FatalIfErrorf(err)
}
