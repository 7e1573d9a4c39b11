package tui

import (
	"fmt"
	"strings"

	"github.com/imamik/k8zdb/internal/tasks"
	"github.com/imamik/k8zdb/internal/usage"
	"github.com/imamik/k8zdb/internal/workload"
)

// RenderStatus renders a workload record, and its usage when known, once.
func RenderStatus(rec *workload.Record, report *usage.Report) string {
	var b strings.Builder

	icon, style := workloadIcon(rec.Status)
	b.WriteString(titleStyle.Render(fmt.Sprintf("k8zdb: %s", rec.Identity)))
	fmt.Fprintf(&b, " %s %s\n", style(icon), style(string(rec.Status)))

	b.WriteString(sectionStyle.Render("  Workload"))
	b.WriteString("\n")
	rows := [][2]string{
		{"Kind", string(rec.Spec.Kind)},
		{"Namespace", rec.Spec.Namespace},
		{"Database", rec.Spec.Database},
		{"Replicas", fmt.Sprintf("%d", rec.Replicas)},
		{"Capacity", fmt.Sprintf("%dGi", rec.Spec.Capacity())},
	}
	if rec.Endpoint != "" {
		rows = append(rows, [2]string{"Endpoint", fmt.Sprintf("%s:%d", rec.Endpoint, rec.Port)})
	}
	for _, row := range rows {
		fmt.Fprintf(&b, "    %-12s %s\n", dimStyle.Render(row[0]), row[1])
	}
	if rec.Error != "" {
		fmt.Fprintf(&b, "    %s %s\n", failedStyle.Render(crossMark), dimStyle.Render(rec.Error))
	}

	if report != nil {
		b.WriteString(sectionStyle.Render("  Usage"))
		b.WriteString("\n")
		for _, s := range report.Samples {
			fmt.Fprintf(&b, "    %-24s %6.3f cores  %s\n", s.Pod, s.CPU, formatBytes(s.MemoryBytes))
		}
		fmt.Fprintf(&b, "    %-24s %6.3f cores  %s\n", activeStyle.Render("total"), report.CPU, formatBytes(report.MemoryBytes))
	}
	return b.String()
}

// RenderTasks renders a task list once.
func RenderTasks(snaps []tasks.Snapshot) string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render("  Tasks"))
	b.WriteString("\n")
	for _, s := range snaps {
		icon, style := taskIcon(s.Status)
		fmt.Fprintf(&b, "    %s %-36s %-9s %-10s %d/%d\n",
			style(icon), s.ID, s.Kind, s.Subject, s.Step, s.TotalSteps)
	}
	return b.String()
}

func workloadIcon(s workload.Status) (string, styleFunc) {
	switch s {
	case workload.StatusRunning:
		return checkMark, sf(readyStyle)
	case workload.StatusError:
		return crossMark, sf(failedStyle)
	case workload.StatusStopped:
		return warnMark, sf(warningStyle)
	default:
		return spinner, sf(activeStyle)
	}
}

func taskIcon(s tasks.Status) (string, styleFunc) {
	switch s {
	case tasks.StatusCompleted:
		return checkMark, sf(readyStyle)
	case tasks.StatusFailed:
		return crossMark, sf(failedStyle)
	default:
		return spinner, sf(activeStyle)
	}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
