package devapi

import (
	"fmt"
	"time"
)

// Collections of the back office, keyed by their endpoint base.
var Collections = []Collection{
	{Name: "subject", Unique: "subjectCode"},
	{Name: "category", Unique: "categoryName"},
	{Name: "course", UpdateID: "courseId", Unique: "name", Decorate: courseSubject},
}

// courseSubject embeds the referenced subject so course rows can show its
// name. It runs with the store lock held.
func courseSubject(s *Store, r Record) {
	subjects := s.collections["subject"]
	if subjects == nil {
		return
	}
	if sub, ok := subjects.records[fmt.Sprint(r["subjectId"])]; ok {
		r["subject"] = map[string]any{"id": sub["id"], "name": sub["subjectName"]}
	}
}

// Seed returns a store with the back-office collections and a few sample
// records.
func Seed(now time.Time) *Store {
	s := NewStore(Collections...)
	s.now = func() time.Time { return now }

	day := func(d int) string { return now.AddDate(0, 0, d).Format("02/01/2006") + " 00:00:00" }

	maths, _ := s.Create("subject", Record{"subjectName": "Mathematics", "subjectCode": "MATH", "status": 1})
	prog, _ := s.Create("subject", Record{"subjectName": "Programming", "subjectCode": "PROG", "status": 1})
	_, _ = s.Create("subject", Record{"subjectName": "Literature", "subjectCode": "LIT", "status": 0})

	_, _ = s.Create("category", Record{"categoryName": "Teachers", "categoryDescription": "Teaching staff", "categoryKind": 1, "categoryOrdering": 0, "status": 1})
	_, _ = s.Create("category", Record{"categoryName": "Students", "categoryKind": 1, "categoryOrdering": 0, "status": 1})

	_, _ = s.Create("course", Record{
		"name": "Go for beginners", "subjectId": prog["id"], "description": "Ten lessons",
		"startDate": day(7), "endDate": day(60), "state": "PREPARING",
		"fee": 1500000, "returnFee": 0, "status": 1,
	})
	_, _ = s.Create("course", Record{
		"name": "Linear algebra", "subjectId": maths["id"], "description": "Vectors and matrices",
		"startDate": day(-30), "endDate": day(30), "state": "STARTED",
		"fee": 900000, "returnFee": 100000, "status": 1,
	})
	s.now = time.Now
	return s
}
