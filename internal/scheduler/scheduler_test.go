package scheduler

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/robfig/cron"

	"github.com/plt-aachen/mensabot/internal/logging"
)

func parseTestSpec(spec string) (cron.Schedule, error) {
	return cron.Parse(spec)
}

var _ = Describe("Scheduler", func() {
	var berlin *time.Location

	BeforeEach(func() {
		var err error
		berlin, err = time.LoadLocation("Europe/Berlin")
		Expect(err).NotTo(HaveOccurred())
	})

	newScheduler := func(hour, minute int, loc *time.Location) *Scheduler {
		s, err := New(hour, minute, loc, logging.NewTestLogger())
		Expect(err).NotTo(HaveOccurred())
		return s
	}

	Describe("New", func() {
		It("should reject out-of-range times", func() {
			_, err := New(24, 0, berlin, logging.NewTestLogger())
			Expect(err).To(HaveOccurred())
			_, err = New(11, 60, berlin, logging.NewTestLogger())
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("NextRun", func() {
		It("should fire the same day before the post time", func() {
			s := newScheduler(11, 25, berlin)
			// Monday 2025-08-25, 09:00 Berlin time.
			now := time.Date(2025, 8, 25, 9, 0, 0, 0, berlin)
			Expect(s.NextRun(now)).To(Equal(time.Date(2025, 8, 25, 11, 25, 0, 0, berlin)))
		})

		It("should fire the next day after the post time", func() {
			s := newScheduler(11, 25, berlin)
			now := time.Date(2025, 8, 25, 12, 0, 0, 0, berlin)
			Expect(s.NextRun(now)).To(Equal(time.Date(2025, 8, 26, 11, 25, 0, 0, berlin)))
		})

		It("should skip the weekend", func() {
			s := newScheduler(11, 25, berlin)
			// Friday 2025-08-29 after the slot.
			now := time.Date(2025, 8, 29, 12, 0, 0, 0, berlin)
			Expect(s.NextRun(now)).To(Equal(time.Date(2025, 9, 1, 11, 25, 0, 0, berlin)))

			// Saturday morning also resolves to Monday.
			now = time.Date(2025, 8, 30, 8, 0, 0, 0, berlin)
			Expect(s.NextRun(now)).To(Equal(time.Date(2025, 9, 1, 11, 25, 0, 0, berlin)))
		})

		It("should convert times from other zones", func() {
			s := newScheduler(11, 25, berlin)
			// 10:00 UTC on Monday is 12:00 in Berlin (CEST), past the slot.
			now := time.Date(2025, 8, 25, 10, 0, 0, 0, time.UTC)
			Expect(s.NextRun(now)).To(Equal(time.Date(2025, 8, 26, 11, 25, 0, 0, berlin)))
		})
	})

	Describe("Run", func() {
		It("should run the job when the slot fires", func() {
			// Every-second spec so the test does not wait until 11:25.
			s := newScheduler(11, 25, time.UTC)
			var err error
			s.schedule, err = parseTestSpec("* * * * * *")
			Expect(err).NotTo(HaveOccurred())

			fired := make(chan struct{}, 10)
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			go func() {
				defer close(done)
				s.Run(ctx, func(context.Context) {
					select {
					case fired <- struct{}{}:
					default:
					}
				})
			}()

			Eventually(fired, "3s").Should(Receive())
			cancel()
			Eventually(done, "2s").Should(BeClosed())
		})
	})
})
