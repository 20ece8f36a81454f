package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type recordingHook struct {
	positions []*HookPos
	items     []any
}

func (h *recordingHook) Func(ctx HookCtx) {
	h.positions = append(h.positions, ctx.Pos)
	h.items = append(h.items, ctx.Item)
}

var _ = Describe("Buffer", func() {
	var (
		buf *Buffer[int]
	)

	BeforeEach(func() {
		buf = NewBuffer[int]("Buf", 2)
	})

	It("should allow push and pop in order", func() {
		Expect(buf.Capacity()).To(Equal(2))
		Expect(buf.CanPush()).To(BeTrue())

		buf.Push(1)
		Expect(buf.CanPush()).To(BeTrue())
		Expect(buf.Size()).To(Equal(1))

		buf.Push(2)
		Expect(buf.CanPush()).To(BeFalse())
		Expect(buf.Size()).To(Equal(2))
		Expect(func() { buf.Push(3) }).To(Panic())

		e, ok := buf.Peek()
		Expect(ok).To(BeTrue())
		Expect(e).To(Equal(1))

		e, _ = buf.Pop()
		Expect(e).To(Equal(1))
		Expect(buf.Size()).To(Equal(1))

		e, _ = buf.Pop()
		Expect(e).To(Equal(2))

		_, ok = buf.Peek()
		Expect(ok).To(BeFalse())
		_, ok = buf.Pop()
		Expect(ok).To(BeFalse())
	})

	It("should reuse the slots after popping", func() {
		for i := 0; i < 10; i++ {
			buf.Push(i)
			e, ok := buf.Pop()
			Expect(ok).To(BeTrue())
			Expect(e).To(Equal(i))
		}

		Expect(buf.Size()).To(Equal(0))
	})

	It("should clear", func() {
		buf.Push(2)
		Expect(buf.Size()).To(Equal(1))

		buf.Clear()

		Expect(buf.Size()).To(Equal(0))
		Expect(buf.CanPush()).To(BeTrue())
		_, ok := buf.Peek()
		Expect(ok).To(BeFalse())
	})

	It("should invoke hooks on push and pop", func() {
		hook := &recordingHook{}
		buf.AcceptHook(hook)

		buf.Push(7)
		buf.Pop()
		buf.Pop()

		Expect(hook.positions).To(Equal([]*HookPos{HookPosBufPush, HookPosBufPop}))
		Expect(hook.items).To(Equal([]any{7, 7}))
	})

	It("should reject the same hook twice", func() {
		hook := &recordingHook{}
		buf.AcceptHook(hook)

		Expect(func() { buf.AcceptHook(hook) }).To(Panic())
	})

	It("should reject a buffer without slots", func() {
		Expect(func() { NewBuffer[int]("Empty", 0) }).To(Panic())
	})
})
