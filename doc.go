// Package cwtlogger provides an embeddable resistance logger for the
// GW Instek GPP-4323 bench power supply.
//
// The recorder drives up to four channels at a fixed test voltage, computes
// resistance from the instrument's readback, appends every sample to a
// crash-safe CSV log, and periodically materializes an Excel spreadsheet
// next to it. It can be used as a standalone CLI application or embedded as
// a library in other Go programs.
//
// # Basic Usage
//
// To embed the recorder in your application:
//
//	cfg := cwtlogger.Config{
//	    DataDir: "/var/lib/cwtlogger",
//	    Port:    "/dev/ttyUSB0",
//	}
//
//	rec, err := cwtlogger.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rec.Close()
//
//	if err := rec.StartLogging(ctx, []int{1, 2}, 0); err != nil {
//	    log.Fatal(err)
//	}
//
//	// ... run until shutdown signal ...
//
//	if err := rec.Stop(); err != nil {
//	    log.Printf("shutdown error: %v", err)
//	}
//
// # Configuration
//
// Create a [Config] with at minimum DataDir and Port. All other fields have
// defaults set via [Config.SetDefaults]. For tests, or for instruments other
// than the GPP-4323, inject a [PowerSource] via [WithPowerSource] and omit
// Port.
//
// # Data Model
//
// One [Sample] holds a timestamp, the elapsed hours since the run started,
// and one reading per channel. A reading is NaN for a channel that was not
// measured, +Inf for an open circuit, and a finite resistance in ohms
// otherwise. The append log under DataDir survives restarts; [New] reloads
// it into the window cache so [Recorder.Window] is populated immediately.
//
// # Event Handling
//
// To receive notifications about recorder operations, implement
// [EventHandler] and pass it via [WithEventHandler]:
//
//	handler := &myEventHandler{}
//	rec, err := cwtlogger.New(cfg, cwtlogger.WithEventHandler(handler))
//
// Events are called synchronously from recorder goroutines. Implementations
// should return quickly to avoid stalling acquisition.
//
// # Lifecycle States
//
// A run moves through five states: [StateStopped], [StateArmed],
// [StateRunning], [StateDraining], and [StateCrashed]. Use
// [Recorder.Status] to query the current state and [Recorder.Session] for a
// full snapshot.
//
// # Retention
//
// Cleared history is archived as compressed CSV under DataDir. Pass
// [WithRetentionConfig] to cap the archive directory's size; the sweep
// removes the oldest archives once the high watermark is crossed.
package cwtlogger
