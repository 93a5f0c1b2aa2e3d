package model_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/okian/streakd/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDayKey(t *testing.T) {
	Convey("Given instants near a UTC day boundary", t, func() {
		late := time.Date(2025, 3, 9, 23, 59, 59, 0, time.UTC)
		// 2025-03-10 02:00 in UTC+3 is still 2025-03-09 in UTC.
		offset := time.Date(2025, 3, 10, 2, 0, 0, 0, time.FixedZone("UTC+3", 3*3600))

		Convey("Then both map to the same UTC calendar day", func() {
			So(model.DayKeyOf(late), ShouldResemble, model.DayKeyOf(offset))
			So(model.DayKeyOf(late).String(), ShouldEqual, "2025-03-09")
		})
	})

	Convey("Given day arithmetic across month and year ends", t, func() {
		k := model.DayKey{Year: 2024, Month: time.December, Day: 31}

		So(k.AddDays(1).String(), ShouldEqual, "2025-01-01")
		So(k.AddDays(-366).String(), ShouldEqual, "2023-12-31")
		So(k.DaysUntil(k.AddDays(60)), ShouldEqual, 60)
		So(k.AddDays(5).DaysUntil(k), ShouldEqual, -5)
		So(model.DayKey{Year: 2024, Month: time.February, Day: 28}.AddDays(1).Day, ShouldEqual, 29)
	})

	Convey("Given DayKey comparisons", t, func() {
		a := model.DayKey{Year: 2025, Month: time.January, Day: 31}
		b := model.DayKey{Year: 2025, Month: time.February, Day: 1}

		So(a.Before(b), ShouldBeTrue)
		So(b.Before(a), ShouldBeFalse)
		So(a.Compare(a), ShouldEqual, 0)
		So(model.DayKey{}.IsZero(), ShouldBeTrue)
	})

	Convey("Given a DayKey encoded as JSON", t, func() {
		k := model.DayKey{Year: 2025, Month: time.July, Day: 4}
		b, err := json.Marshal(k)
		So(err, ShouldBeNil)
		So(string(b), ShouldEqual, `"2025-07-04"`)

		var back model.DayKey
		So(json.Unmarshal(b, &back), ShouldBeNil)
		So(back, ShouldResemble, k)
		So(json.Unmarshal([]byte(`"07/04/2025"`), &back), ShouldNotBeNil)
	})
}

func TestDaySet(t *testing.T) {
	Convey("Given a day set built with duplicates", t, func() {
		d1 := model.DayKey{Year: 2025, Month: time.May, Day: 1}
		d2 := d1.AddDays(1)
		d5 := d1.AddDays(4)
		s := model.NewDaySet(d5, d1, d2, d1, d5)

		So(s.Len(), ShouldEqual, 3)
		So(s.Has(d2), ShouldBeTrue)
		So(s.Has(d1.AddDays(2)), ShouldBeFalse)
		So(s.Sorted(), ShouldResemble, []model.DayKey{d1, d2, d5})
		So(s.CountBetween(d2, d5), ShouldEqual, 2)

		last, ok := s.Max()
		So(ok, ShouldBeTrue)
		So(last, ShouldResemble, d5)

		_, ok = model.DaySet(nil).Max()
		So(ok, ShouldBeFalse)
		So(model.DaySet(nil).Has(d1), ShouldBeFalse)
	})
}
