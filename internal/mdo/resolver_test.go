package mdo_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/factorytwin/internal/mdo"
)

var _ = Describe("Resolver", func() {
	Context("ordering", func() {
		It("orders producers before consumers regardless of declaration", func() {
			m := mdo.NewModel().
				Add(scale("b", "y", "z", 1), mdo.PromoteAll()).
				Add(scale("a", "x", "y", 2), mdo.PromoteAll()).
				Preset("x", 1)

			g, err := m.Build()
			Expect(err).NotTo(HaveOccurred())
			Expect(g.Order()).To(Equal([]string{"a", "b"}))
			Expect(g.Levels()).To(Equal([][]string{{"a"}, {"b"}}))
			Expect(g.Edges()).To(Equal([]mdo.Edge{{From: "a", To: "b"}}))
		})

		It("keeps declaration order between independent components", func() {
			m := mdo.NewModel().
				Add(scale("c", "x", "u", 1), mdo.PromoteAll()).
				Add(scale("a", "x", "v", 1), mdo.PromoteAll()).
				Add(scale("b", "x", "w", 1), mdo.PromoteAll()).
				Preset("x", 1)

			g, err := m.Build()
			Expect(err).NotTo(HaveOccurred())
			Expect(g.Order()).To(Equal([]string{"c", "a", "b"}))
			Expect(g.Levels()).To(HaveLen(1))
		})

		It("is deterministic across rebuilds", func() {
			build := func() []string {
				m := mdo.NewModel().
					Add(sum("join", "l", "r", "out"), mdo.PromoteAll()).
					Add(scale("right", "s", "r", 3), mdo.PromoteAll()).
					Add(scale("left", "s", "l", 2), mdo.PromoteAll()).
					Add(scale("src", "x", "s", 1), mdo.PromoteAll()).
					Preset("x", 1)
				g, err := m.Build()
				Expect(err).NotTo(HaveOccurred())
				return g.Order()
			}
			first := build()
			Expect(first).To(Equal([]string{"src", "right", "left", "join"}))
			for i := 0; i < 5; i++ {
				Expect(build()).To(Equal(first))
			}
		})

		It("caches the graph until the structure changes", func() {
			m := mdo.NewModel().Add(scale("a", "x", "y", 2), mdo.PromoteAll()).Preset("x", 1)
			g1, err := m.Build()
			Expect(err).NotTo(HaveOccurred())
			g2, _ := m.Build()
			Expect(g2).To(BeIdenticalTo(g1))

			m.Preset("x", 5)
			g3, _ := m.Build()
			Expect(g3).To(BeIdenticalTo(g1))

			m.Add(scale("b", "y", "z", 1), mdo.PromoteAll())
			g4, err := m.Build()
			Expect(err).NotTo(HaveOccurred())
			Expect(g4).NotTo(BeIdenticalTo(g1))
		})
	})

	Context("structural errors", func() {
		It("rejects a two-component cycle", func() {
			m := mdo.NewModel().
				Add(scale("a", "p", "q", 1), mdo.PromoteAll()).
				Add(scale("b", "q", "p", 1), mdo.PromoteAll())

			_, err := m.Build()
			Expect(err).To(MatchError(mdo.ErrCyclicDependency))
			Expect(err.Error()).To(ContainSubstring("a, b"))
		})

		It("rejects two producers of one key", func() {
			m := mdo.NewModel().
				Add(scale("a", "x", "y", 1), mdo.PromoteAll()).
				Add(scale("b", "x", "y", 2), mdo.PromoteAll()).
				Preset("x", 1)

			_, err := m.Build()
			Expect(err).To(MatchError(mdo.ErrDuplicateProducer))

			var me *mdo.ModelError
			Expect(errors.As(err, &me)).To(BeTrue())
			Expect(me.Component).To(Equal("b"))
			Expect(me.Key).To(Equal("y"))
		})

		It("rejects a design variable that a component produces", func() {
			m := mdo.NewModel().
				Add(scale("a", "x", "y", 1), mdo.PromoteAll()).
				Preset("x", 1)

			_, err := m.Build("y")
			Expect(err).To(MatchError(mdo.ErrDuplicateProducer))
		})

		It("rejects inputs without producer, preset or default", func() {
			m := mdo.NewModel().Add(scale("a", "x", "y", 1), mdo.PromoteAll())

			_, err := m.Build()
			Expect(err).To(MatchError(mdo.ErrUnresolvedInput))
			Expect(err.Error()).To(ContainSubstring("x"))
		})

		It("rejects duplicate component names", func() {
			m := mdo.NewModel().
				Add(scale("a", "x", "y", 1)).
				Add(scale("a", "x", "z", 1)).
				Preset("a.x", 1)

			_, err := m.Build()
			Expect(err).To(MatchError(mdo.ErrInvalidModel))
		})

		It("rejects connections into outputs", func() {
			m := mdo.NewModel().
				Add(scale("a", "x", "y", 1)).
				Add(scale("b", "u", "v", 1)).
				Connect("a.y", "b.v")

			_, err := m.Build()
			Expect(err).To(MatchError(mdo.ErrInvalidModel))
		})

		It("rejects promotions of unknown ports", func() {
			m := mdo.NewModel().
				Add(scale("a", "x", "y", 1)).
				Promote("a", "nope", "k")

			_, err := m.Build()
			Expect(err).To(MatchError(mdo.ErrInvalidModel))
		})
	})

	Context("key mapping", func() {
		It("namespaces unpromoted ports by component", func() {
			m := mdo.NewModel().Add(scale("a", "x", "y", 1)).Preset("a.x", 1)

			g, err := m.Build()
			Expect(err).NotTo(HaveOccurred())
			in, out, ok := g.Ports("a")
			Expect(ok).To(BeTrue())
			Expect(in).To(Equal([]string{"a.x"}))
			Expect(out).To(Equal([]string{"a.y"}))
		})

		It("wires explicit connections onto the source key", func() {
			m := mdo.NewModel().
				Add(scale("b", "u", "v", 1)).
				Add(scale("a", "x", "y", 1)).
				Connect("a.y", "b.u").
				Preset("a.x", 1)

			g, err := m.Build()
			Expect(err).NotTo(HaveOccurred())
			Expect(g.Order()).To(Equal([]string{"a", "b"}))
			Expect(g.Consumers("a.y")).To(Equal([]string{"b"}))
		})

		It("shares explicitly promoted keys", func() {
			m := mdo.NewModel().
				Add(scale("a", "x", "y", 1)).
				Add(scale("b", "u", "v", 1)).
				Promote("a", "y", "shared").
				Promote("b", "u", "shared").
				Preset("a.x", 1)

			g, err := m.Build()
			Expect(err).NotTo(HaveOccurred())
			p, ok := g.Producer("shared")
			Expect(ok).To(BeTrue())
			Expect(p).To(Equal("a"))
			Expect(g.Order()).To(Equal([]string{"a", "b"}))
		})

		It("adopts the first declared input default", func() {
			first := mdo.NewFunc("first",
				[]mdo.Port{mdo.InDefault("k", "", 2)}, []mdo.Port{mdo.Out("a", "")},
				func(v mdo.Values) (mdo.Values, error) { return mdo.Values{"a": v["k"]}, nil })
			second := mdo.NewFunc("second",
				[]mdo.Port{mdo.InDefault("k", "", 7)}, []mdo.Port{mdo.Out("b", "")},
				func(v mdo.Values) (mdo.Values, error) { return mdo.Values{"b": v["k"]}, nil })

			g, err := mdo.NewModel().Add(first, mdo.PromoteAll()).Add(second, mdo.PromoteAll()).Build()
			Expect(err).NotTo(HaveOccurred())
			Expect(g.Defaults()).To(Equal(map[string]float64{"k": 2}))
			p, _ := g.Producer("k")
			Expect(p).To(Equal(mdo.ProducerExternal))
		})

		It("lists every variable with its producer", func() {
			m := mdo.NewModel().Add(scale("a", "x", "y", 1), mdo.PromoteAll())
			g, err := m.Build("x")
			Expect(err).NotTo(HaveOccurred())
			Expect(g.Variables()).To(Equal([]mdo.Variable{
				{Name: "x", ProducedBy: mdo.ProducerDesign},
				{Name: "y", ProducedBy: "a"},
			}))
		})
	})
})
