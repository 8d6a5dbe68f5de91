// Package sim provides the discrete-time CPU scheduling simulator.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - process.go: ProcessRecord, ScheduledProcess and its timeline
//     (created → started_running → running … → finished)
//   - environment.go: the Environment, its execution slots and the Tick cycle
//   - scheduler.go: the Scheduler interface and the policy registry
//
// # Policies
//
// The ten policies live in three files grouped by the state they keep:
//   - scheduler_basic.go: FCFS, SJF (optionally preemptive), HRRF
//   - scheduler_sliced.go: RR, SP, DP, DPMQ
//   - scheduler_feedback.go: MFQ, SPMFQ, MPMFQ
//
// Each policy owns a ProcessRecord-to-Extension wrapper and a decision step run once
// per tick, before CPU time is consumed. Schedulers mutate slot occupancy only
// through Environment.Dispatch, Pause and Preempt.
//
// # Around the kernel
//
//   - simulator.go: feeds an arrival sequence into an Environment and evaluates the run
//   - metrics.go: turnaround/response aggregation
//   - bundle.go: YAML configuration
//   - sim/trace/: decision trace recording
//   - sim/workload/: random arrival generation and arrival files
//   - sim/experiment/: parameter sweeps across schedulers
package sim
