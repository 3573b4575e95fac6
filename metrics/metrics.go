// Package metrics exposes the runtime's operational surface via
// github.com/prometheus/client_golang: task throughput, GC cycle counts,
// heap sizes, and queue depths, shared by collector/, portal/, and
// runner/. Grounded on the teacher's direct dependency on client_golang;
// the registration style (package-level collectors registered once at
// import time) mirrors the common promauto idiom used across the
// retrieval pack rather than any teacher-internal stats subsystem, since
// aistore's own `stats` package carries cluster-reporting machinery this
// embeddable runtime has no use for (no network protocol, spec.md §6).
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	TasksSpawned = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "portalvm",
		Subsystem: "portal",
		Name:      "tasks_spawned_total",
		Help:      "Total tasks spawned across all worker threads.",
	})

	TasksCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "portalvm",
		Subsystem: "portal",
		Name:      "tasks_completed_total",
		Help:      "Total tasks that reached Ready and joined their heap.",
	})

	TasksSuspended = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "portalvm",
		Subsystem: "portal",
		Name:      "tasks_suspended_total",
		Help:      "Total poll cycles that returned Pending.",
	})

	TasksFaulted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "portalvm",
		Subsystem: "portal",
		Name:      "tasks_faulted_total",
		Help:      "Total tasks torn down after a recovered panic during poll.",
	})

	QueueDepth = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "portalvm",
		Subsystem: "portal",
		Name:      "poll_list_depth",
		Help:      "Current length of a worker thread's poll_list.",
	}, []string{"thread"})

	CopyCollectCycles = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "portalvm",
		Subsystem: "collector",
		Name:      "copy_collect_cycles_total",
		Help:      "Total copy_collect invocations across all task heaps.",
	})

	EpochChanges = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "portalvm",
		Subsystem: "collector",
		Name:      "epoch_changes_total",
		Help:      "Total epoch_change rotations actually performed (witness set was empty).",
	})

	HeapSize = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "portalvm",
		Subsystem: "collector",
		Name:      "heap_object_count",
		Help:      "Current live object count of a task's heap.",
	}, []string{"task"})
)

func init() {
	prometheus.MustRegister(
		TasksSpawned, TasksCompleted, TasksSuspended, TasksFaulted, QueueDepth,
		CopyCollectCycles, EpochChanges, HeapSize,
	)
}
