package tracker

import (
	"testing"
	"time"
)

func done(id, client, task string, start time.Time, seconds int64) TimeEntry {
	s := Millis(start)
	return TimeEntry{
		ID:        id,
		TaskName:  task,
		ClientID:  client,
		StartTime: s,
		EndTime:   Int64(s + sec(seconds)),
		Duration:  seconds,
		Date:      DateOf(s, jst),
	}
}

func fixture() ([]TimeEntry, []Client) {
	clients := []Client{
		{ID: "c1", Name: "Acme", Color: "#111111"},
		{ID: "c2", Name: "Globex"},
		{ID: "c3", Name: "Idle Co"},
	}
	mon := time.Date(2025, 6, 16, 9, 0, 0, 0, jst)
	entries := []TimeEntry{
		done("e1", "c1", "Design", mon, 3600),
		done("e2", "c1", "Design", mon.Add(2*time.Hour), 1800),
		done("e3", "c1", "design", mon.Add(4*time.Hour), 600),
		done("e4", "c2", "Support", mon.AddDate(0, 0, 1), 7200),
		done("e5", "c1", "Review", mon.AddDate(0, 0, 1).Add(-time.Hour), 0),
		done("e6", "ghost", "Orphan", mon, 9999),
		done("e7", "c2", "Support", mon.AddDate(0, 0, -14), 1200),
	}
	return entries, clients
}

func TestAggregate_GroupsAndOrdering(t *testing.T) {
	entries, clients := fixture()
	r := Aggregate(entries, clients, FilterThisWeek, wednesday, jst)

	if len(r.ClientGroups) != 2 {
		t.Fatalf("client groups = %d, want 2: %+v", len(r.ClientGroups), r.ClientGroups)
	}
	if r.ClientGroups[0].ClientID != "c2" || r.ClientGroups[0].TotalDuration != 7200 {
		t.Errorf("first group = %+v, want c2 with 7200", r.ClientGroups[0])
	}
	acme := r.ClientGroups[1]
	if acme.TotalDuration != 6000 {
		t.Errorf("acme total = %d, want 6000", acme.TotalDuration)
	}
	// case-sensitive task names, zero-duration Review dropped
	if len(acme.Tasks) != 2 || acme.Tasks[0].TaskName != "Design" || acme.Tasks[1].TaskName != "design" {
		t.Fatalf("acme tasks = %+v", acme.Tasks)
	}
	design := acme.Tasks[0]
	if design.EntryCount != 2 || design.Entries[0].ID != "e2" || design.Entries[1].ID != "e1" {
		t.Errorf("design entries not newest first: %+v", design.Entries)
	}
	if r.ClientGroups[0].ClientColor != ClientColor("Globex") {
		t.Errorf("derived color = %s, want %s", r.ClientGroups[0].ClientColor, ClientColor("Globex"))
	}
}

// TestAggregate_Totals checks task sums against client and overall totals
func TestAggregate_Totals(t *testing.T) {
	entries, clients := fixture()
	for _, f := range Filters {
		r := Aggregate(entries, clients, f, wednesday, jst)
		var sum int64
		for _, g := range r.ClientGroups {
			var taskSum int64
			for _, task := range g.Tasks {
				taskSum += task.TotalDuration
			}
			if taskSum != g.TotalDuration {
				t.Errorf("%s: %s task sum %d != client total %d", f, g.ClientID, taskSum, g.TotalDuration)
			}
			sum += g.TotalDuration
		}
		if sum != r.Total {
			t.Errorf("%s: client sum %d != total %d", f, sum, r.Total)
		}
	}
}

// TestAggregate_All ignores dates but still drops orphans
func TestAggregate_All(t *testing.T) {
	entries, clients := fixture()
	r := Aggregate(entries, clients, FilterAll, wednesday, jst)
	if r.Total != 3600+1800+600+7200+1200 {
		t.Errorf("total = %d", r.Total)
	}
	if r.Daily != nil {
		t.Errorf("daily buckets for all = %v, want none", r.Daily)
	}
}

func TestAggregate_DailyBuckets(t *testing.T) {
	entries, clients := fixture()
	r := Aggregate(entries, clients, FilterThisWeek, wednesday, jst)
	if len(r.Daily) != 7 {
		t.Fatalf("daily = %d buckets, want 7", len(r.Daily))
	}
	byDate := map[string]DailyBucket{}
	for _, b := range r.Daily {
		byDate[b.Date] = b
	}
	if b := byDate["2025-06-16"]; b.Seconds != 6000 || b.Hours != 1.7 {
		t.Errorf("monday bucket = %+v, want 6000s 1.7h", b)
	}
	if b := byDate["2025-06-17"]; b.Hours != 2.0 {
		t.Errorf("tuesday bucket = %+v, want 2.0h", b)
	}
	if b := byDate["2025-06-15"]; b.Seconds != 0 {
		t.Errorf("sunday bucket = %+v, want empty", b)
	}

	today := Aggregate(entries, clients, FilterToday, wednesday, jst)
	if today.Daily != nil {
		t.Errorf("daily buckets for today = %v, want none", today.Daily)
	}
}

// TestAggregate_ActiveEntry uses the live duration
func TestAggregate_ActiveEntry(t *testing.T) {
	_, clients := fixture()
	start := wednesday.Add(-90 * time.Minute)
	active := TimeEntry{
		ID: "live", TaskName: "Call", ClientID: "c1",
		StartTime: Millis(start), Date: DateOf(Millis(start), jst),
	}
	r := Aggregate([]TimeEntry{active}, clients, FilterToday, wednesday, jst)
	if r.Total != 5400 {
		t.Errorf("total = %d, want 5400", r.Total)
	}
}

func TestSortClientsByRecency(t *testing.T) {
	entries, clients := fixture()
	got := SortClientsByRecency(clients, entries)
	want := []string{"c2", "c1", "c3"}
	for i, c := range got {
		if c.ID != want[i] {
			t.Fatalf("order = %v, want %v", ids(got), want)
		}
	}
	if clients[0].ID != "c1" {
		t.Error("SortClientsByRecency mutated its input")
	}
}

func TestRecentTaskNames(t *testing.T) {
	entries, _ := fixture()
	got := RecentTaskNames(entries, 2)
	if len(got) != 2 || got[0] != "Support" || got[1] != "Review" {
		t.Errorf("RecentTaskNames = %v", got)
	}
	if all := RecentTaskNames(entries, 0); len(all) != 5 {
		t.Errorf("RecentTaskNames(0) = %v, want 5 names", all)
	}
}

func ids(cs []Client) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}
