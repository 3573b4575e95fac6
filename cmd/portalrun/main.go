// Command portalrun is a minimal host demo (SPEC_FULL.md §10): it loads a
// JSON-encoded program file describing one module plus an initial
// closure's entry symbol and captured literals, spawns a single task, and
// drives N worker goroutines until that task settles.
//
// Grounded on the teacher's cmd/cli entry point for its urfave/cli wiring
// style (NewApp, Flags, Action); the program-file format and its
// jsoniter-based decoding are spec.md §6's own bytecode-module
// representation.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/urfave/cli"

	"github.com/ais-project/portalvm/closure"
	"github.com/ais-project/portalvm/cmn/nlog"
	"github.com/ais-project/portalvm/collector"
	"github.com/ais-project/portalvm/interpreter"
	"github.com/ais-project/portalvm/object"
	"github.com/ais-project/portalvm/runner"
)

// programFile is the on-disk shape --program points at: one module plus
// the entry symbol and literal captures for the task's initial closure.
type programFile struct {
	Module   json.RawMessage `json:"module"`
	Entry    string          `json:"entry"`
	Captures []interface{}   `json:"captures"`
}

// seedTaskId holds the demo's initial closure and its captured literals —
// a throwaway heap never collected, only ever read from.
const seedTaskId object.TaskId = 1

func builtinRegistry() interpreter.OperateRegistry {
	return interpreter.OperateRegistry{
		"closure.new":       closure.New,
		"closure.apply":     closure.Apply,
		"closure.capture":   closure.Capture,
		"closure.poll":      closure.Poll,
		"closure.ready_new": closure.ReadyNew,
	}
}

func run(c *cli.Context) error {
	path := c.String("program")
	if path == "" {
		return cli.NewExitError("portalrun: --program is required", 1)
	}
	workers := c.Int("workers")
	timeout := time.Duration(c.Int("timeout")) * time.Second

	data, err := os.ReadFile(path)
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("portalrun: read program file: %v", err), 1)
	}

	var pf programFile
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, &pf); err != nil {
		return cli.NewExitError(fmt.Sprintf("portalrun: decode program file: %v", err), 1)
	}

	mod, err := interpreter.DecodeModule(pf.Module, builtinRegistry())
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	coll := collector.New()
	coll.Spawn(seedTaskId)

	captureAddrs := make([]object.Address, len(pf.Captures))
	for i, v := range pf.Captures {
		captureAddrs[i] = coll.Allocate(seedTaskId, object.NewOwned(scalar{Value: v}))
	}
	closureAddr := coll.Allocate(seedTaskId, object.NewOwned(object.Closure{
		Dispatch:    object.Dispatch{ModuleId: mod.Id, Symbol: pf.Entry},
		CaptureList: captureAddrs,
	}))

	r := runner.New(workers, coll)
	r.LoadModule(mod)
	r.Start()
	defer r.Stop()

	taskID := r.Submit(0, closureAddr)
	nlog.Infof("portalrun: submitted task %d, waiting up to %s", taskID, timeout)

	select {
	case done := <-r.Done():
		resultAddr, _ := r.Result(done)
		shared := coll.Inspect(seedTaskId, resultAddr)
		defer shared.Release()
		fmt.Printf("task %d ready: %s\n", done, shared.Object())
		return nil
	case <-time.After(timeout):
		return cli.NewExitError("portalrun: timed out waiting for task to complete", 1)
	}
}

func main() {
	app := cli.NewApp()
	app.Name = "portalrun"
	app.Usage = "load a JSON program, spawn one task, drive it to completion"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "program", Usage: "path to a JSON program file"},
		cli.IntFlag{Name: "workers", Value: 1, Usage: "number of worker goroutines"},
		cli.IntFlag{Name: "timeout", Value: 10, Usage: "seconds to wait for completion"},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		nlog.Errorln(err)
		os.Exit(1)
	}
}
