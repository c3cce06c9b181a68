package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/roommates-api/internal/models"
)

func weeklyTask(id uint64, difficulty int, required *int, assignments ...models.TaskAssignment) models.Task {
	return models.Task{
		ID:             id,
		Difficulty:     difficulty,
		Recurrence:     models.RecurrenceWeekly,
		RequiredPeople: required,
		Assignments:    assignments,
	}
}

func assignedIn(week time.Time, taskID, userID uint64) models.TaskAssignment {
	w := week
	return models.TaskAssignment{TaskID: taskID, UserID: userID, WeekStart: &w, Status: models.AssignmentIncomplete}
}

func householdMembers() []models.GroupMember {
	return []models.GroupMember{
		member(1, "alice", monday.Add(-3*time.Hour)),
		member(2, "bob", monday.Add(-2*time.Hour)),
		member(3, "carol", monday.Add(-time.Hour)),
	}
}

// apply merges planned assignments into the tasks like a reload would
func apply(tasks []models.Task, planned []models.TaskAssignment) []models.Task {
	out := make([]models.Task, len(tasks))
	copy(out, tasks)
	for i := range out {
		out[i].Assignments = append([]models.TaskAssignment(nil), out[i].Assignments...)
		for _, a := range planned {
			if a.TaskID == out[i].ID {
				out[i].Assignments = append(out[i].Assignments, a)
			}
		}
	}
	return out
}

func TestPlanWeeklyAssignments_MissingRequiredPeopleReadsAsOne(t *testing.T) {
	tasks := []models.Task{weeklyTask(1, 1, nil), weeklyTask(2, 1, intPtr(0))}

	planned := PlanWeeklyAssignments(tasks, householdMembers(), monday)

	require.Len(t, planned, 2)
	for _, a := range planned {
		require.NotNil(t, a.WeekStart)
		assert.True(t, a.WeekStart.Equal(monday))
		assert.Equal(t, models.AssignmentIncomplete, a.Status)
	}
}

func TestPlanWeeklyAssignments_RequiredTwoIsIdempotent(t *testing.T) {
	tasks := []models.Task{weeklyTask(10, 2, intPtr(2))}
	members := householdMembers()

	planned := PlanWeeklyAssignments(tasks, members, monday)
	require.Len(t, planned, 2)
	assert.NotEqual(t, planned[0].UserID, planned[1].UserID)
	assert.Equal(t, uint64(1), planned[0].UserID)
	assert.Equal(t, uint64(2), planned[1].UserID)

	again := PlanWeeklyAssignments(apply(tasks, planned), members, monday)
	assert.Empty(t, again)
}

func TestPlanWeeklyAssignments_ExistingAssigneesCount(t *testing.T) {
	tasks := []models.Task{
		weeklyTask(1, 1, intPtr(2), assignedIn(monday, 1, 3)),
		weeklyTask(2, 1, nil, assignedIn(monday, 2, 2)),
	}

	planned := PlanWeeklyAssignments(tasks, householdMembers(), monday)

	require.Len(t, planned, 1)
	assert.Equal(t, uint64(1), planned[0].TaskID)
	assert.NotEqual(t, uint64(3), planned[0].UserID)
}

func TestPlanWeeklyAssignments_DepartedAssigneeStillCounts(t *testing.T) {
	tasks := []models.Task{weeklyTask(1, 1, nil, assignedIn(monday, 1, 99))}

	assert.Empty(t, PlanWeeklyAssignments(tasks, householdMembers(), monday))
}

func TestPlanWeeklyAssignments_OtherWeeksIgnored(t *testing.T) {
	lastWeek := monday.AddDate(0, 0, -7)
	tasks := []models.Task{weeklyTask(1, 1, nil, assignedIn(lastWeek, 1, 1))}

	planned := PlanWeeklyAssignments(tasks, householdMembers(), monday)

	require.Len(t, planned, 1)
	assert.Equal(t, uint64(1), planned[0].UserID)
}

func TestPlanWeeklyAssignments_PartialWhenTooFewMembers(t *testing.T) {
	tasks := []models.Task{weeklyTask(1, 1, intPtr(5))}

	planned := PlanWeeklyAssignments(tasks, householdMembers(), monday)

	assert.Len(t, planned, 3)
}

func TestPlanWeeklyAssignments_BalancesDifficultyLoad(t *testing.T) {
	tasks := []models.Task{
		weeklyTask(3, 1, nil),
		weeklyTask(1, 5, nil),
		weeklyTask(2, 3, nil),
	}

	planned := PlanWeeklyAssignments(tasks, householdMembers(), monday)

	require.Len(t, planned, 3)
	byTask := map[uint64]uint64{}
	for _, a := range planned {
		byTask[a.TaskID] = a.UserID
	}
	// tasks are filled in ID order, each going to the least loaded member
	assert.Equal(t, uint64(1), byTask[1])
	assert.Equal(t, uint64(2), byTask[2])
	assert.Equal(t, uint64(3), byTask[3])
}

func TestPlanWeeklyAssignments_ExistingLoadShiftsChoice(t *testing.T) {
	tasks := []models.Task{
		weeklyTask(1, 4, nil, assignedIn(monday, 1, 1)),
		weeklyTask(2, 1, nil),
	}

	planned := PlanWeeklyAssignments(tasks, householdMembers(), monday)

	require.Len(t, planned, 1)
	assert.Equal(t, uint64(2), planned[0].UserID)
}

func TestPlanWeeklyAssignments_SkipsOneTimeTasks(t *testing.T) {
	oneTime := weeklyTask(1, 1, nil)
	oneTime.Recurrence = models.RecurrenceOneTime

	assert.Empty(t, PlanWeeklyAssignments([]models.Task{oneTime}, householdMembers(), monday))
}

func TestPlanWeeklyAssignments_NoMembers(t *testing.T) {
	assert.Empty(t, PlanWeeklyAssignments([]models.Task{weeklyTask(1, 1, nil)}, nil, monday))
}
