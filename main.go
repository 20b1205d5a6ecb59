/*
 * RVLanes - Multi lane RV32 machine.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	getopt "github.com/pborman/getopt/v2"

	parser "github.com/rcornwell/rvlanes/command/parser"
	reader "github.com/rcornwell/rvlanes/command/reader"
	machineconfig "github.com/rcornwell/rvlanes/config/machineconfig"
	core "github.com/rcornwell/rvlanes/emu/core"
	host "github.com/rcornwell/rvlanes/emu/host"
	master "github.com/rcornwell/rvlanes/emu/master"
	timer "github.com/rcornwell/rvlanes/emu/timer"
	telnet "github.com/rcornwell/rvlanes/telnet"
	debug "github.com/rcornwell/rvlanes/util/debug"
	logger "github.com/rcornwell/rvlanes/util/logger"
	metrics "github.com/rcornwell/rvlanes/util/metrics"
)

var Logger *slog.Logger

func main() {
	optConfig := getopt.StringLong("config", 'c', "rvlanes.cfg", "Configuration file, .toml or line format")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optDebug := getopt.BoolLong("debug", 'd', "Log debug to console")
	optMetrics := getopt.StringLong("metrics", 'm', "", "Serve metrics on address")
	optSteps := getopt.IntLong("steps", 's', 0, "Run steps per core without console then exit")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var file *os.File
	if *optLogFile != "" {
		var err error
		file, err = os.Create(*optLogFile)
		if err != nil {
			slog.Error("Unable to create log file", "file", *optLogFile, "error", err)
		}
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelDebug)
	Logger = slog.New(logger.NewHandler(file, &slog.HandlerOptions{Level: programLevel, AddSource: false}, optDebug))
	slog.SetDefault(Logger)

	Logger.Info("RVLanes Started")

	_, err := os.Stat(*optConfig)
	if os.IsNotExist(err) {
		Logger.Error("Configuration file can't be found", "file", *optConfig)
		os.Exit(1)
	}

	err = machineconfig.Load(*optConfig)
	if err != nil {
		Logger.Error(err.Error())
		os.Exit(1)
	}
	defer debug.Close()

	var reg *metrics.Metrics
	var server *http.Server
	if *optMetrics != "" {
		reg = metrics.New()
		server = startMetrics(*optMetrics, reg)
	}

	settings := machineconfig.Current()
	machine, err := settings.Build(reg)
	if err != nil {
		Logger.Error(err.Error())
		os.Exit(1)
	}

	status := 0
	if *optSteps > 0 {
		status = runSteps(machine, *optSteps)
	} else {
		masterChannel := make(chan master.Packet)

		// Create new routine to run cores.
		loop := core.New(machine, masterChannel, settings.Batch)
		go loop.Start()

		var clock *timer.Timer
		if settings.Timer > 0 {
			clock = timer.NewTimer(masterChannel, time.Duration(settings.Timer)*time.Millisecond)
			clock.Start()
		}

		var monitor *telnet.Server
		if settings.Monitor > 0 {
			monitor, err = telnet.Start(":"+strconv.Itoa(settings.Monitor), &parser.Control{Core: loop, Machine: machine})
			if err != nil {
				Logger.Error(err.Error())
			}
		}

		msg := make(chan string, 1)
		go func() {
			reader.ConsoleReader(&parser.Control{Core: loop, Machine: machine, Out: os.Stdout})
			msg <- ""
		}()

		// Wait on shutdown option
		<-msg
		if monitor != nil {
			monitor.Stop()
		}
		if clock != nil {
			clock.Shutdown()
		}
		loop.Stop()
	}

	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		_ = server.Shutdown(ctx)
		cancel()
	}
	Logger.Info("Servers stopped.")
	if status != 0 {
		os.Exit(status)
	}
}

// Serve prometheus metrics until shutdown.
func startMetrics(addr string, reg *metrics.Metrics) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", reg.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			Logger.Error("Metrics server failed", "addr", addr, "error", err)
		}
	}()
	Logger.Info("Metrics server started", "addr", addr)
	return server
}

// Dispatch every core for steps, interrupt stops early. Report each core.
func runSteps(machine *host.Machine, steps int) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	batch, err := machine.Dispatch(ctx, 0, machine.Cores()-1, steps)
	if err != nil {
		Logger.Error(err.Error())
		return 1
	}
	for _, res := range batch.Cores {
		pc, _ := machine.PC(res.Core)
		code, _ := machine.ExitCode(res.Core)
		Logger.Info("Core finished", "core", res.Core, "state", res.State.String(),
			"steps", res.Steps, "pc", pc, "exit", code)
	}
	if batch.Halted != machine.Cores() {
		return 2
	}
	return 0
}
