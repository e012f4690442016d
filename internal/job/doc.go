// Package job runs persisted background jobs: a bounded in-memory queue fed
// by Submit and by recovery of unfinished jobs from the Store, a fixed pool
// of workers, bounded retries and a monitor that resets jobs stuck in
// processing. Jobs loaded back from the Store are rebuilt by a Registry.
package job
