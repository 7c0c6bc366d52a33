package mdo_test

import (
	"errors"
	"fmt"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/goleak"

	"github.com/san-kum/factorytwin/internal/mdo"
)

var _ = Describe("Engine", func() {
	diamond := func() *mdo.Model {
		return mdo.NewModel().
			Add(scale("src", "x", "s", 1.5), mdo.PromoteAll()).
			Add(scale("left", "s", "l", 2), mdo.PromoteAll()).
			Add(scale("right", "s", "r", 3), mdo.PromoteAll()).
			Add(sum("join", "l", "r", "out"), mdo.PromoteAll())
	}

	seeded := func(x float64) *mdo.Namespace {
		ns := mdo.NewNamespace()
		ns.Set("x", x)
		return ns
	}

	It("evaluates every component in dependency order", func() {
		g, err := diamond().Build("x")
		Expect(err).NotTo(HaveOccurred())

		ns := seeded(2)
		Expect(mdo.NewEngine(g).Run(ns)).To(Succeed())
		Expect(ns.Snapshot()).To(Equal(map[string]float64{
			"x": 2, "s": 3, "l": 6, "r": 9, "out": 15,
		}))
	})

	It("produces identical namespaces for identical passes", func() {
		g, err := diamond().Build("x")
		Expect(err).NotTo(HaveOccurred())
		e := mdo.NewEngine(g)

		a, b := seeded(0.7), seeded(0.7)
		Expect(e.Run(a)).To(Succeed())
		Expect(e.Run(b)).To(Succeed())
		Expect(a.Snapshot()).To(Equal(b.Snapshot()))

		Expect(e.Run(a)).To(Succeed())
		Expect(a.Snapshot()).To(Equal(b.Snapshot()))
	})

	It("matches the serial pass when levels run in parallel", func() {
		ignore := goleak.IgnoreCurrent()
		DeferCleanup(func() {
			Expect(goleak.Find(ignore)).To(Succeed())
		})

		g, err := diamond().Build("x")
		Expect(err).NotTo(HaveOccurred())
		serial := mdo.NewEngine(g)
		parallel := mdo.NewEngine(g, mdo.WithParallel(true))
		Expect(parallel.Levels()).To(Equal([][]string{{"src"}, {"left", "right"}, {"join"}}))

		for _, x := range []float64{-3, 0, 0.25, 11} {
			a, b := seeded(x), seeded(x)
			Expect(serial.Run(a)).To(Succeed())
			Expect(parallel.Run(b)).To(Succeed())
			Expect(b.Snapshot()).To(Equal(a.Snapshot()))
		}
	})

	Context("when a component fails", func() {
		limited := func(fail error) *mdo.Model {
			guard := mdo.NewFunc("guard",
				[]mdo.Port{mdo.In("s", "")}, []mdo.Port{mdo.Out("g", "")},
				func(v mdo.Values) (mdo.Values, error) {
					if v["s"] > 10 {
						return nil, fail
					}
					return mdo.Values{"g": v["s"]}, nil
				})
			return mdo.NewModel().
				Add(scale("src", "x", "s", 1), mdo.PromoteAll()).
				Add(guard, mdo.PromoteAll())
		}

		It("leaves the namespace untouched", func() {
			g, err := limited(errors.New("boom")).Build("x")
			Expect(err).NotTo(HaveOccurred())
			e := mdo.NewEngine(g)

			ns := seeded(1)
			Expect(e.Run(ns)).To(Succeed())
			before := ns.Snapshot()

			ns.Set("x", 50)
			before["x"] = 50
			err = e.Run(ns)

			var pe *mdo.PassError
			Expect(errors.As(err, &pe)).To(BeTrue())
			Expect(pe.Component).To(Equal("guard"))
			Expect(ns.Snapshot()).To(Equal(before))
		})

		It("propagates domain errors with the component name", func() {
			g, err := limited(mdo.Domainf("", "s out of range")).Build("x")
			Expect(err).NotTo(HaveOccurred())

			err = mdo.NewEngine(g, mdo.WithParallel(true)).Run(seeded(50))
			Expect(err).To(MatchError(mdo.ErrDomain))

			var de *mdo.DomainError
			Expect(errors.As(err, &de)).To(BeTrue())
			Expect(de.Component).To(Equal("guard"))
		})
	})

	DescribeTable("output checks",
		func(out mdo.Values, target error) {
			bad := mdo.NewFunc("bad",
				[]mdo.Port{mdo.In("x", "")}, []mdo.Port{mdo.Out("y", "")},
				func(mdo.Values) (mdo.Values, error) { return out, nil })
			g, err := mdo.NewModel().Add(bad, mdo.PromoteAll()).Build("x")
			Expect(err).NotTo(HaveOccurred())

			err = mdo.NewEngine(g).Run(seeded(1))
			Expect(err).To(HaveOccurred())
			if target != nil {
				Expect(err).To(MatchError(target))
			} else {
				var pe *mdo.PassError
				Expect(errors.As(err, &pe)).To(BeTrue(), fmt.Sprint(err))
			}
		},
		Entry("NaN output", mdo.Values{"y": math.NaN()}, mdo.ErrDomain),
		Entry("infinite output", mdo.Values{"y": math.Inf(1)}, mdo.ErrDomain),
		Entry("missing output", mdo.Values{}, nil),
		Entry("undeclared output", mdo.Values{"y": 1, "extra": 2}, nil),
	)
})
