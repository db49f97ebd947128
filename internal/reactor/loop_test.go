package reactor_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/tentview/internal/reactor"
	"github.com/san-kum/tentview/internal/render"
	"github.com/san-kum/tentview/internal/view"
)

// gate blocks every draw until released.
type gate struct {
	render.Recorder
	entered chan struct{}
	release chan struct{}
}

func newGate() *gate {
	return &gate{entered: make(chan struct{}, 16), release: make(chan struct{})}
}

func (g *gate) Draw(ctx context.Context, s *render.Scene) error {
	g.entered <- struct{}{}
	<-g.release
	return g.Recorder.Draw(ctx, s)
}

func threshold(v float64) view.Mutation {
	return view.Mutation{Key: view.KeyThreshold, Value: v}
}

var _ = Describe("Loop", func() {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)

	BeforeEach(func() {
		ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
		DeferCleanup(func() { cancel() })
	})

	It("ends on the last of a rapid burst of threshold changes", func() {
		g := newGate()
		r, err := reactor.New(stack(10), g, reactor.DefaultOptions())
		Expect(err).NotTo(HaveOccurred())
		loop := reactor.NewLoop(r)
		go loop.Run(ctx)

		Expect(loop.Submit(threshold(2))).To(Succeed())
		Eventually(g.entered).Should(Receive())
		Expect(r.Phase()).To(Equal(reactor.Updating))

		Expect(loop.Submit(threshold(6))).To(Succeed())
		Expect(loop.Submit(threshold(8))).To(Succeed())
		close(g.release)

		Expect(loop.Wait(ctx)).To(Succeed())
		Expect(r.State().Threshold).To(Equal(8.0))
		Expect(r.Geometry().Upper).To(Equal(8.0))
		Expect(r.Geometry().Len()).To(Equal(17))
		Expect(loop.Applied()).To(Equal(uint64(2)))
		Expect(g.Last().State.Threshold).To(Equal(8.0))
		Expect(r.Phase()).To(Equal(reactor.Idle))
	})

	It("collapses changes queued before it starts", func() {
		rec := &render.Recorder{}
		r, err := reactor.New(stack(10), rec, reactor.DefaultOptions())
		Expect(err).NotTo(HaveOccurred())
		loop := reactor.NewLoop(r)

		for _, v := range []float64{1, 3, 5} {
			Expect(loop.Submit(threshold(v))).To(Succeed())
		}
		go loop.Run(ctx)

		Expect(loop.Wait(ctx)).To(Succeed())
		Expect(loop.Applied()).To(Equal(uint64(1)))
		Expect(rec.Count()).To(Equal(1))
		Expect(r.State().Threshold).To(Equal(5.0))
	})

	It("keeps changes of different keys in order", func() {
		rec := &render.Recorder{}
		r, err := reactor.New(stack(10), rec, reactor.DefaultOptions())
		Expect(err).NotTo(HaveOccurred())
		loop := reactor.NewLoop(r)

		Expect(loop.Submit(view.Mutation{Key: view.KeyField, Value: "tentnumber"})).To(Succeed())
		Expect(loop.Submit(threshold(4))).To(Succeed())
		go loop.Run(ctx)

		Expect(loop.Wait(ctx)).To(Succeed())
		Expect(r.State().Field).To(Equal("tentnumber"))
		Expect(r.Geometry().Cells).To(Equal([]int{0, 1, 2, 3, 4}))
	})

	It("accepts changes through its handler", func() {
		r, err := reactor.New(stack(2), nil, reactor.DefaultOptions())
		Expect(err).NotTo(HaveOccurred())
		loop := reactor.NewLoop(r)
		var h view.Handler = loop.Handle

		Expect(h(ctx, view.Mutation{Key: view.KeyOpacity, Value: 0.5})).To(Succeed())
		Expect(h(ctx, view.Mutation{Key: view.KeyOpacity, Value: 2.0})).To(MatchError(view.ErrConfiguration))
		go loop.Run(ctx)

		Expect(loop.Wait(ctx)).To(Succeed())
		Expect(r.State().Opacity).To(Equal(0.5))
	})

	It("rejects invalid changes at submission", func() {
		r, err := reactor.New(stack(2), nil, reactor.DefaultOptions())
		Expect(err).NotTo(HaveOccurred())
		loop := reactor.NewLoop(r)

		Expect(loop.Submit(view.Mutation{Key: view.KeyField, Value: "pressure"})).To(MatchError(view.ErrConfiguration))
		Expect(loop.Submit(view.Mutation{Key: view.KeyThreshold, Value: "high"})).To(MatchError(view.ErrConfiguration))
		Expect(loop.Submit(view.Mutation{Key: view.KeyColormap, Value: "jet"})).To(MatchError(view.ErrConfiguration))
		Expect(loop.Wait(ctx)).To(Succeed())
	})
})
