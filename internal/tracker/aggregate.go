package tracker

import (
	"sort"
	"time"
)

// TaskGroup totals one task name within a client.
type TaskGroup struct {
	TaskName      string      `json:"task_name"`
	TotalDuration int64       `json:"total_duration"`
	EntryCount    int         `json:"entry_count"`
	Entries       []TimeEntry `json:"entries"`
}

// ClientGroup totals one client.
type ClientGroup struct {
	ClientID      string      `json:"client_id"`
	ClientName    string      `json:"client_name"`
	ClientColor   string      `json:"client_color"`
	TotalDuration int64       `json:"total_duration"`
	Tasks         []TaskGroup `json:"tasks"`
}

// DailyBucket is one bar of the per-day chart.
type DailyBucket struct {
	Date    string  `json:"date"`
	Seconds int64   `json:"seconds"`
	Hours   float64 `json:"hours"`
}

// Report is the result of Aggregate.
type Report struct {
	Filter       DateFilter    `json:"filter"`
	ClientGroups []ClientGroup `json:"client_groups"`
	Daily        []DailyBucket `json:"daily"`
	Total        int64         `json:"total"`
	EntryCount   int           `json:"entry_count"`
}

// Aggregate filters entries by period and groups them by client, then task.
// Entries whose client is not in clients are dropped, and groups without
// positive time are left out. now is interpreted in loc.
func Aggregate(entries []TimeEntry, clients []Client, filter DateFilter, now time.Time, loc *time.Location) Report {
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)
	nowMs := Millis(now)

	known := make(map[string]int, len(clients))
	for i, c := range clients {
		known[c.ID] = i
	}

	var included []TimeEntry
	for _, e := range entries {
		if _, ok := known[e.ClientID]; !ok {
			continue
		}
		if filter.Includes(e, now) {
			included = append(included, e)
		}
	}

	report := Report{Filter: filter, ClientGroups: []ClientGroup{}}
	for _, c := range clients {
		g := groupClient(c, included, nowMs)
		if g.TotalDuration <= 0 {
			continue
		}
		report.ClientGroups = append(report.ClientGroups, g)
		report.Total += g.TotalDuration
		for _, t := range g.Tasks {
			report.EntryCount += t.EntryCount
		}
	}
	sort.SliceStable(report.ClientGroups, func(i, j int) bool {
		return report.ClientGroups[i].TotalDuration > report.ClientGroups[j].TotalDuration
	})

	if r, ok := filter.Range(now); ok && filter.HasDailyBuckets() {
		report.Daily = dailyBuckets(r, included, nowMs)
	}
	return report
}

func groupClient(c Client, entries []TimeEntry, nowMs int64) ClientGroup {
	color := c.Color
	if color == "" {
		color = ClientColor(c.Name)
	}
	g := ClientGroup{ClientID: c.ID, ClientName: c.Name, ClientColor: color}

	index := map[string]int{}
	var tasks []TaskGroup
	for _, e := range entries {
		if e.ClientID != c.ID {
			continue
		}
		i, ok := index[e.TaskName]
		if !ok {
			i = len(tasks)
			index[e.TaskName] = i
			tasks = append(tasks, TaskGroup{TaskName: e.TaskName})
		}
		tasks[i].TotalDuration += EffectiveDuration(e, nowMs)
		tasks[i].EntryCount++
		tasks[i].Entries = append(tasks[i].Entries, e)
	}

	g.Tasks = []TaskGroup{}
	for _, t := range tasks {
		if t.TotalDuration <= 0 {
			continue
		}
		sort.SliceStable(t.Entries, func(i, j int) bool {
			return t.Entries[i].StartTime > t.Entries[j].StartTime
		})
		g.TotalDuration += t.TotalDuration
		g.Tasks = append(g.Tasks, t)
	}
	sort.SliceStable(g.Tasks, func(i, j int) bool {
		return g.Tasks[i].TotalDuration > g.Tasks[j].TotalDuration
	})
	return g
}

func dailyBuckets(r Range, entries []TimeEntry, nowMs int64) []DailyBucket {
	days := r.Days()
	sums := make(map[string]int64, len(days))
	for _, e := range entries {
		sums[e.Date] += EffectiveDuration(e, nowMs)
	}
	out := make([]DailyBucket, 0, len(days))
	for _, d := range days {
		out = append(out, DailyBucket{Date: d, Seconds: sums[d], Hours: Hours(sums[d])})
	}
	return out
}

// SortClientsByRecency orders clients by the start of their newest entry,
// newest first. Clients without entries keep their relative order at the end.
func SortClientsByRecency(clients []Client, entries []TimeEntry) []Client {
	last := make(map[string]int64, len(clients))
	for _, e := range entries {
		if cur, ok := last[e.ClientID]; !ok || e.StartTime > cur {
			last[e.ClientID] = e.StartTime
		}
	}
	out := make([]Client, len(clients))
	copy(out, clients)
	sort.SliceStable(out, func(i, j int) bool {
		ti, iok := last[out[i].ID]
		tj, jok := last[out[j].ID]
		if iok != jok {
			return iok
		}
		return ti > tj
	})
	return out
}

// RecentTaskNames returns up to n distinct task names, newest entry first.
// n <= 0 returns all of them.
func RecentTaskNames(entries []TimeEntry, n int) []string {
	sorted := make([]TimeEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartTime > sorted[j].StartTime
	})

	seen := map[string]bool{}
	var names []string
	for _, e := range sorted {
		if seen[e.TaskName] {
			continue
		}
		seen[e.TaskName] = true
		names = append(names, e.TaskName)
		if n > 0 && len(names) == n {
			break
		}
	}
	return names
}
