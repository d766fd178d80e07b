package journey

import (
	"testing"

	"github.com/pathwayhq/pathway/core/user"
)

func TestCanMutateStage(t *testing.T) {
	stages := []string{StageFeesPaid, StageEcommerce, StageOrientation}
	want := map[string][]bool{ // same order as stages
		user.RoleAdmin:       {true, true, true},
		user.RoleFinance:     {true, false, false},
		user.RoleEcommerce:   {false, true, false},
		user.RoleCoach:       {false, false, true},
		user.RoleParticipant: {false, false, false},
		"":                   {false, false, false},
		"teacher":            {false, false, false},
	}

	for role, results := range want {
		for i, stage := range stages {
			t.Run(role+"/"+stage, func(t *testing.T) {
				if got := CanMutateStage(role, stage); got != results[i] {
					t.Errorf("CanMutateStage(%q, %q) = %v, want %v", role, stage, got, results[i])
				}
			})
		}
	}
}

func TestCanMutateStage_adminAnyStage(t *testing.T) {
	for _, stage := range append(DefaultStages, Stage{Name: "Graduation"}) {
		if !CanMutateStage(user.RoleAdmin, stage.Name) {
			t.Errorf("CanMutateStage(admin, %q) = false, want true", stage.Name)
		}
	}
}

func TestCanMutateStage_exactMatch(t *testing.T) {
	if CanMutateStage(user.RoleFinance, "fees paid") {
		t.Error("CanMutateStage(finance, \"fees paid\") = true, want false")
	}
	if !CanMutateStage(user.RoleCoach, "fees paid") {
		t.Error("CanMutateStage(coach, \"fees paid\") = false, want true")
	}
}
