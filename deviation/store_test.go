package deviation

import (
	"testing"
	"time"

	"github.com/yisunguk/drawing-detector-sub003/model"
	"github.com/yisunguk/drawing-detector-sub003/pkg/apperr"
)

func testDeviations() []model.Deviation {
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	return []model.Deviation{
		{DeviationID: "d1", ArticleNo: 1, Subject: "공사기간 변경", Status: model.StatusOpen, CreatedAt: base},
		{DeviationID: "d2", ArticleNo: 1, Subject: "대금 지급 조건", Status: model.StatusClosed, CreatedAt: base.Add(time.Hour)},
		{DeviationID: "d3", ArticleNo: 1, Subject: "하자보수 기간", Status: model.StatusOpen, CreatedAt: base.Add(2 * time.Hour)},
		{DeviationID: "d4", ArticleNo: 5, Subject: "안전관리비 정산", Status: model.StatusOpen, CreatedAt: base.Add(3 * time.Hour)},
	}
}

func TestLoadAndGet(t *testing.T) {
	s := NewStore()
	s.Load(testDeviations())

	if s.Count() != 4 {
		t.Errorf("Expected 4 deviations, got %d", s.Count())
	}

	d, ok := s.Get("d2")
	if !ok {
		t.Fatal("Expected to find d2")
	}
	if d.Status != model.StatusClosed {
		t.Errorf("Expected d2 closed, got %s", d.Status)
	}

	if _, ok := s.Get("missing"); ok {
		t.Error("Expected missing id to be absent")
	}
}

func TestByArticleOrder(t *testing.T) {
	s := NewStore()
	s.Load(testDeviations())

	devs := s.ByArticle(1)
	if len(devs) != 3 {
		t.Fatalf("Expected 3 deviations for article 1, got %d", len(devs))
	}

	// Arrival order, never re-sorted
	for i, want := range []string{"d1", "d2", "d3"} {
		if devs[i].DeviationID != want {
			t.Errorf("Expected %s at position %d, got %s", want, i, devs[i].DeviationID)
		}
	}

	if got := s.ByArticle(99); len(got) != 0 {
		t.Errorf("Expected no deviations for article 99, got %d", len(got))
	}
}

func TestFiltered(t *testing.T) {
	s := NewStore()
	s.Load(testDeviations())

	all := s.ByArticle(1)
	open := s.Filtered(1, model.StatusOpen)

	if len(open) != 2 {
		t.Fatalf("Expected 2 open deviations, got %d", len(open))
	}
	for _, d := range open {
		if d.Status != model.StatusOpen {
			t.Errorf("Expected only open deviations, got %s with status %s", d.DeviationID, d.Status)
		}
	}
	if len(open) >= len(all) {
		t.Error("Expected filtered set to be a strict subset")
	}

	// Badge count equals the filtered subset size
	if s.OpenCount(1) != len(open) {
		t.Errorf("Expected OpenCount %d to equal filtered size %d", s.OpenCount(1), len(open))
	}

	// Empty status passes everything
	if got := s.Filtered(1, ""); len(got) != len(all) {
		t.Errorf("Expected unfiltered set of %d, got %d", len(all), len(got))
	}
}

func TestLoadReplacesWholesale(t *testing.T) {
	s := NewStore()
	s.Load(testDeviations())

	s.Load([]model.Deviation{
		{DeviationID: "d9", ArticleNo: 2, Subject: "신규", Status: model.StatusOpen},
	})

	if s.Count() != 1 {
		t.Errorf("Expected 1 deviation after reload, got %d", s.Count())
	}
	if _, ok := s.Get("d1"); ok {
		t.Error("Expected d1 to be gone after reload")
	}
	if len(s.ByArticle(1)) != 0 {
		t.Error("Expected article 1 to have no deviations after reload")
	}
}

func TestCommentOrderPreserved(t *testing.T) {
	s := NewStore()
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	s.Load([]model.Deviation{{
		DeviationID: "d1",
		ArticleNo:   1,
		Status:      model.StatusOpen,
		Comments: []model.Comment{
			// Deliberately out of timestamp order: append order wins
			{CommentID: "c1", Author: model.RoleClient, Content: "검토 요청", CreatedAt: base.Add(time.Hour)},
			{CommentID: "c2", Author: model.RoleContractor, Content: "확인했습니다", CreatedAt: base},
		},
	}})

	d, _ := s.Get("d1")
	if len(d.Comments) != 2 {
		t.Fatalf("Expected 2 comments, got %d", len(d.Comments))
	}
	if d.Comments[0].CommentID != "c1" || d.Comments[1].CommentID != "c2" {
		t.Error("Expected comments to keep append order, not timestamp order")
	}
}

func TestValidateCreate(t *testing.T) {
	tests := []struct {
		name      string
		articleNo int
		subject   string
		wantErr   bool
	}{
		{"valid", 1, "공사기간 변경", false},
		{"unset article", 0, "공사기간 변경", true},
		{"empty subject", 1, "", true},
		{"whitespace subject", 1, "   \t ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCreate(tt.articleNo, tt.subject)
			if tt.wantErr {
				if !apperr.IsValidation(err) {
					t.Errorf("Expected validation error, got %v", err)
				}
			} else if err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

func TestValidateComment(t *testing.T) {
	if err := ValidateComment("d1", "검토 요청"); err != nil {
		t.Errorf("Expected valid comment, got %v", err)
	}
	if !apperr.IsValidation(ValidateComment("", "검토 요청")) {
		t.Error("Expected validation error for unset deviation id")
	}
	if !apperr.IsValidation(ValidateComment("d1", "  \n ")) {
		t.Error("Expected validation error for whitespace content")
	}
}
