package services

import (
	"sort"
	"time"

	"github.com/yukikurage/roommates-api/internal/models"
)

// PlanWeeklyAssignments computes the assignments needed so every recurring
// task has EffectiveRequiredPeople distinct assignees for the week. tasks
// must carry that week's assignments. Assignees are picked from members by
// lowest difficulty load this week, then join order. The result never
// repeats an existing (task, user, week) pair.
func PlanWeeklyAssignments(tasks []models.Task, members []models.GroupMember, weekStart time.Time) []models.TaskAssignment {
	ordered := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Recurrence.IsRecurring() {
			ordered = append(ordered, t)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	pool := make([]models.GroupMember, len(members))
	copy(pool, members)
	sortByJoinOrder(pool)

	load := make(map[uint64]int, len(pool))
	for _, t := range ordered {
		for _, a := range t.Assignments {
			if a.InWeek(weekStart) {
				load[a.UserID] += t.EffectiveDifficulty()
			}
		}
	}

	var planned []models.TaskAssignment
	for _, task := range ordered {
		assigned := make(map[uint64]struct{})
		for _, a := range task.Assignments {
			if a.InWeek(weekStart) {
				assigned[a.UserID] = struct{}{}
			}
		}

		shortfall := task.EffectiveRequiredPeople() - len(assigned)
		if shortfall <= 0 {
			continue
		}

		candidates := make([]models.GroupMember, 0, len(pool))
		for _, m := range pool {
			if _, ok := assigned[m.UserID]; !ok {
				candidates = append(candidates, m)
			}
		}
		// pool is in join order, so a stable sort keeps it as the tie-break
		sort.SliceStable(candidates, func(i, j int) bool {
			return load[candidates[i].UserID] < load[candidates[j].UserID]
		})

		if shortfall > len(candidates) {
			shortfall = len(candidates)
		}
		for _, m := range candidates[:shortfall] {
			week := weekStart
			planned = append(planned, models.TaskAssignment{
				TaskID:    task.ID,
				UserID:    m.UserID,
				WeekStart: &week,
				Status:    models.AssignmentIncomplete,
			})
			load[m.UserID] += task.EffectiveDifficulty()
		}
	}

	return planned
}
