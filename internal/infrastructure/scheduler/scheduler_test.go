package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/semmidev/sqlvault/internal/infrastructure/logger"
)

func countingJob(counter *int32, err error) Job {
	return func(ctx context.Context) error {
		atomic.AddInt32(counter, 1)
		return err
	}
}

func TestScheduler(t *testing.T) {
	Convey("Given a Scheduler", t, func() {
		scheduler := New(logger.NewNop())

		Convey("New function", func() {
			Convey("It should start in the stopped state", func() {
				So(scheduler, ShouldNotBeNil)
				So(scheduler.Running(), ShouldBeFalse)
			})
		})

		Convey("AddJob function", func() {
			Convey("When adding a job with a valid cron spec", func() {
				var runs int32
				err := scheduler.AddJob("every-second", "* * * * * *", countingJob(&runs, nil))

				Convey("It should run on the schedule", func() {
					So(err, ShouldBeNil)

					scheduler.Start()
					time.Sleep(2 * time.Second)
					scheduler.Stop()

					So(atomic.LoadInt32(&runs), ShouldBeGreaterThanOrEqualTo, 1)
				})
			})

			Convey("When adding a job with an invalid cron spec", func() {
				err := scheduler.AddJob("broken", "invalid spec", countingJob(new(int32), nil))

				Convey("It should return an error", func() {
					So(err, ShouldNotBeNil)
					So(err.Error(), ShouldContainSubstring, "expected exactly 6 fields")
				})
			})
		})

		Convey("AddEvery function", func() {
			Convey("When the interval is below one second", func() {
				err := scheduler.AddEvery("fast", 10*time.Millisecond, countingJob(new(int32), nil), false)

				Convey("It should be rejected", func() {
					So(err, ShouldNotBeNil)
				})
			})
		})

		Convey("Start with an immediate job", func() {
			var runs int32
			So(scheduler.AddEvery("backup", time.Hour, countingJob(&runs, nil), true), ShouldBeNil)

			scheduler.Start()
			defer scheduler.Stop()

			Convey("It should run once before the first interval elapses", func() {
				So(scheduler.Running(), ShouldBeTrue)
				deadline := time.Now().Add(time.Second)
				for atomic.LoadInt32(&runs) == 0 && time.Now().Before(deadline) {
					time.Sleep(10 * time.Millisecond)
				}
				So(atomic.LoadInt32(&runs), ShouldEqual, 1)
			})
		})

		Convey("Start while already running", func() {
			So(scheduler.AddEvery("backup", time.Hour, countingJob(new(int32), nil), false), ShouldBeNil)
			So(scheduler.AddJob("cleanup", "0 0 3 * * *", countingJob(new(int32), nil)), ShouldBeNil)

			scheduler.Start()
			first := scheduler.cron
			scheduler.Start()
			defer scheduler.Stop()

			Convey("It should replace the timers instead of adding more", func() {
				So(scheduler.cron, ShouldNotEqual, first)
				So(len(scheduler.cron.Entries()), ShouldEqual, 2)
				So(len(first.Entries()), ShouldEqual, 2)
			})
		})

		Convey("Failing jobs", func() {
			var runs int32
			So(scheduler.AddEvery("flaky", time.Second, countingJob(&runs, errors.New("dump failed")), true), ShouldBeNil)

			Convey("It should keep ticking after errors", func() {
				scheduler.Start()
				time.Sleep(2500 * time.Millisecond)
				scheduler.Stop()

				So(atomic.LoadInt32(&runs), ShouldBeGreaterThanOrEqualTo, 2)
			})
		})

		Convey("Panicking jobs", func() {
			var runs int32
			So(scheduler.AddEvery("panicky", time.Second, func(ctx context.Context) error {
				atomic.AddInt32(&runs, 1)
				panic("unexpected")
			}, true), ShouldBeNil)

			Convey("It should recover and keep ticking", func() {
				scheduler.Start()
				time.Sleep(2500 * time.Millisecond)
				scheduler.Stop()

				So(atomic.LoadInt32(&runs), ShouldBeGreaterThanOrEqualTo, 2)
			})
		})

		Convey("Start and Stop methods", func() {
			var runs int32
			So(scheduler.AddEvery("backup", time.Second, countingJob(&runs, nil), true), ShouldBeNil)

			Convey("It should not run after Stop", func() {
				So(func() { scheduler.Start() }, ShouldNotPanic)
				time.Sleep(1500 * time.Millisecond)

				So(func() { scheduler.Stop() }, ShouldNotPanic)
				So(scheduler.Running(), ShouldBeFalse)

				stoppedAt := atomic.LoadInt32(&runs)
				So(stoppedAt, ShouldBeGreaterThanOrEqualTo, 1)

				time.Sleep(3 * time.Second)
				So(atomic.LoadInt32(&runs), ShouldEqual, stoppedAt)
			})

			Convey("Stop should be safe when already stopped", func() {
				So(func() { scheduler.Stop() }, ShouldNotPanic)
				So(func() { scheduler.Stop() }, ShouldNotPanic)
			})
		})
	})
}
