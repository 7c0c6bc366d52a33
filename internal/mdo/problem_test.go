package mdo_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/factorytwin/internal/mdo"
	"github.com/san-kum/factorytwin/internal/physics"
)

var _ = Describe("Problem", func() {
	Context("with the solar evaporator", func() {
		var p *mdo.Problem

		BeforeEach(func() {
			m := mdo.NewModel().
				Add(physics.NewSun(), mdo.PromoteAll()).
				Preset("solar_irradiance", 800)
			d := mdo.NewDesignSpec().
				AddDesignVar("membrane_area", 0.5, 10).
				SetObjective("freshwater_rate", mdo.Maximize)

			var err error
			p, err = mdo.NewProblem(m, d)
			Expect(err).NotTo(HaveOccurred())
		})

		It("computes thermal power and freshwater rate", func() {
			ev, err := p.Evaluate([]float64{2.0})
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.Objective).To(BeNumerically("~", 1.1776e-3, 1e-12))

			out := p.Snapshot()
			Expect(out["sun_thermal_power"]).To(BeNumerically("~", 1472, 1e-9))
			Expect(out["lspr_efficiency"]).To(Equal(0.92))
			Expect(p.Passes()).To(Equal(1))
		})

		It("rejects design vectors of the wrong length", func() {
			_, err := p.Evaluate([]float64{1, 2})
			Expect(err).To(MatchError(mdo.ErrInvalidModel))
		})
	})

	Context("when the design spec is edited after building", func() {
		var (
			p *mdo.Problem
			d *mdo.DesignSpec
		)

		BeforeEach(func() {
			m := mdo.NewModel().Add(scale("a", "x", "y", 2), mdo.PromoteAll()).Preset("k", 1)
			d = mdo.NewDesignSpec().
				AddDesignVar("x", -10, 10).
				SetObjective("y", mdo.Minimize).
				AddConstraint(mdo.AtMost("y", 1))

			var err error
			p, err = mdo.NewProblem(m, d)
			Expect(err).NotTo(HaveOccurred())

			d.AddDesignVar("k", 0, 1).
				SetObjective("x", mdo.Maximize).
				AddConstraint(mdo.AtLeast("y", 0))
		})

		It("keeps evaluating the validated copy", func() {
			Expect(p.Design().Dim()).To(Equal(1))
			Expect(p.Design().Constraints()).To(HaveLen(1))

			ev, err := p.Evaluate([]float64{3})
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.Objective).To(Equal(6.0))
			Expect(ev.Constraints).To(Equal([]float64{6}))
		})

		It("hands out copies", func() {
			p.Design().AddDesignVar("k", 0, 1)
			Expect(p.Design().Names()).To(Equal([]string{"x"}))
		})
	})

	It("fails when an external input has no preset", func() {
		m := mdo.NewModel().Add(physics.NewSun(), mdo.PromoteAll())
		d := mdo.NewDesignSpec().
			AddDesignVar("membrane_area", 0.5, 10).
			SetObjective("freshwater_rate", mdo.Maximize)

		_, err := mdo.NewProblem(m, d)
		Expect(err).To(MatchError(mdo.ErrUnresolvedInput))
		Expect(err.Error()).To(ContainSubstring("solar_irradiance"))
	})

	Context("design validation", func() {
		model := func() *mdo.Model {
			return mdo.NewModel().Add(scale("a", "x", "y", 2), mdo.PromoteAll()).Preset("k", 1)
		}

		It("requires design variables to feed a component", func() {
			d := mdo.NewDesignSpec().AddDesignVar("k", 0, 1).AddDesignVar("x", 0, 1).SetObjective("y", mdo.Minimize)
			_, err := mdo.NewProblem(model(), d)
			Expect(err).To(MatchError(mdo.ErrInvalidModel))
		})

		It("requires a producible objective", func() {
			d := mdo.NewDesignSpec().AddDesignVar("x", 0, 1).SetObjective("nowhere", mdo.Minimize)
			_, err := mdo.NewProblem(model(), d)
			Expect(err).To(MatchError(mdo.ErrUnknownVariable))
		})

		It("requires constraint bounds", func() {
			d := mdo.NewDesignSpec().
				AddDesignVar("x", 0, 1).
				SetObjective("y", mdo.Minimize).
				AddConstraint(mdo.Constraint{Name: "y"})
			_, err := mdo.NewProblem(model(), d)
			Expect(err).To(MatchError(mdo.ErrInvalidModel))
		})

		It("rejects inverted variable bounds", func() {
			d := mdo.NewDesignSpec().AddDesignVar("x", 2, 1).SetObjective("y", mdo.Minimize)
			_, err := mdo.NewProblem(model(), d)
			Expect(err).To(MatchError(mdo.ErrInvalidModel))
		})
	})

	Context("constraints", func() {
		It("reports raw values and the worst violation", func() {
			m := mdo.NewModel().Add(scale("a", "x", "y", 2), mdo.PromoteAll())
			d := mdo.NewDesignSpec().
				AddDesignVar("x", -10, 10).
				SetObjective("y", mdo.Minimize).
				AddConstraint(mdo.AtMost("y", 1)).
				AddConstraint(mdo.AtLeast("x", 0))
			p, err := mdo.NewProblem(m, d)
			Expect(err).NotTo(HaveOccurred())

			ev, err := p.Evaluate([]float64{-1})
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.Constraints).To(Equal([]float64{-2, -1}))
			Expect(d.MaxViolation(ev.Constraints)).To(Equal(1.0))

			ev, err = p.Evaluate([]float64{3})
			Expect(err).NotTo(HaveOccurred())
			Expect(d.MaxViolation(ev.Constraints)).To(Equal(5.0))
		})

		It("treats equal bounds as an equality", func() {
			Expect(mdo.EqualTo("y", 1).IsEquality()).To(BeTrue())
			Expect(mdo.Between("y", 0, 1).IsEquality()).To(BeFalse())
			Expect(mdo.EqualTo("y", 1).Violation(0.25)).To(Equal(0.75))
		})
	})
})
