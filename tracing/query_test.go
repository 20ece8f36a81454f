package tracing

import (
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/komandara/k10fabric/datarecording"
)

var _ = Describe("QueryTasks", func() {
	var (
		clock  *fakeClock
		reader datarecording.DataReader
	)

	BeforeEach(func() {
		path := filepath.Join(GinkgoT().TempDir(), "trace")

		recorder, err := datarecording.NewWithDriver(
			datarecording.DriverPure, path)
		Expect(err).NotTo(HaveOccurred())

		clock = &fakeClock{}
		tracer := NewDBTracer(clock, recorder)

		record := func(id, kind, loc string, start, end float64) {
			clock.now = start
			tracer.StartTask(Task{ID: id, Kind: kind, What: "R@0x0", Location: loc})
			clock.now = end
			tracer.EndTask(Task{ID: id})
		}

		record("3", "write", "K10.IFetch", 3, 6)
		record("1", "read", "K10.Data", 1, 2)
		record("2", "read", "K10.IFetch", 2, 4)
		tracer.Terminate()

		reader, err = datarecording.NewReader(
			datarecording.DriverPure, path+".sqlite3")
		Expect(err).NotTo(HaveOccurred())

		DeferCleanup(func() {
			reader.Close()
			recorder.Close()
		})
	})

	It("should list the tasks in start time order", func() {
		tasks, total, err := QueryTasks(context.Background(), reader, TaskQuery{})

		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(Equal(3))
		Expect(tasks).To(HaveLen(3))
		Expect(tasks[0].ID).To(Equal("1"))
		Expect(tasks[1].ID).To(Equal("2"))
		Expect(tasks[2].ID).To(Equal("3"))
		Expect(tasks[2].EndTime).To(Equal(6.0))
	})

	It("should filter by kind and location prefix", func() {
		tasks, total, err := QueryTasks(context.Background(), reader,
			TaskQuery{Kind: "read", Location: "K10.IF"})

		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(Equal(1))
		Expect(tasks[0].ID).To(Equal("2"))
	})

	It("should page the results", func() {
		tasks, total, err := QueryTasks(context.Background(), reader,
			TaskQuery{Limit: 1, Offset: 1})

		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(Equal(3))
		Expect(tasks).To(HaveLen(1))
		Expect(tasks[0].ID).To(Equal("2"))
	})
})
