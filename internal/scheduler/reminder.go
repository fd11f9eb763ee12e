package scheduler

import (
	"sort"
	"time"
)

const (
	// ReminderWindow is how far ahead of now a deadline counts as approaching.
	ReminderWindow = 48 * time.Hour
	// ReminderCooldown is the minimum gap between two reminders for one task.
	ReminderCooldown = 24 * time.Hour
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskStatusOpen       TaskStatus = "open"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusBlocked    TaskStatus = "blocked"
	TaskStatusOverdue    TaskStatus = "overdue"
)

// Task is the snapshot of a task the reminder rules work on.
type Task struct {
	ID               string
	Deadline         *time.Time
	Status           TaskStatus
	LastReminderSent *time.Time
}

// IsReminderEligible reports whether task should receive a reminder at now.
func IsReminderEligible(now time.Time, task Task) bool {
	if task.Deadline == nil || task.Status == TaskStatusCompleted {
		return false
	}
	deadline := *task.Deadline
	if deadline.Before(now) || deadline.After(now.Add(ReminderWindow)) {
		return false
	}
	if task.LastReminderSent == nil {
		return true
	}
	return now.Sub(*task.LastReminderSent) >= ReminderCooldown
}

// SelectReminderEligibleTasks filters tasks down to those due a reminder,
// preserving input order.
func SelectReminderEligibleTasks(now time.Time, tasks []Task) []Task {
	eligible := make([]Task, 0)
	for _, task := range tasks {
		if IsReminderEligible(now, task) {
			eligible = append(eligible, task)
		}
	}
	return eligible
}

// SelectOverdueTasks returns open or in-progress tasks whose deadline has
// passed, earliest deadline first.
func SelectOverdueTasks(now time.Time, tasks []Task) []Task {
	overdue := make([]Task, 0)
	for _, task := range tasks {
		if task.Deadline == nil || !task.Deadline.Before(now) {
			continue
		}
		if task.Status != TaskStatusOpen && task.Status != TaskStatusInProgress {
			continue
		}
		overdue = append(overdue, task)
	}
	sort.SliceStable(overdue, func(i, j int) bool {
		return overdue[i].Deadline.Before(*overdue[j].Deadline)
	})
	return overdue
}
