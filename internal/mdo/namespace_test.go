package mdo_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/factorytwin/internal/mdo"
)

var _ = Describe("Namespace", func() {
	var ns *mdo.Namespace

	BeforeEach(func() {
		ns = mdo.NewNamespace()
	})

	It("reports keys that were never written", func() {
		_, err := ns.Get("missing")
		Expect(err).To(MatchError(mdo.ErrUnknownVariable))
		Expect(ns.Has("missing")).To(BeFalse())
	})

	It("treats zero as a present value", func() {
		ns.Set("x", 0)
		v, err := ns.Get("x")
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(BeZero())
		Expect(ns.Has("x")).To(BeTrue())
	})

	It("overwrites on Set and lists keys in lexical order", func() {
		ns.Set("b", 1)
		ns.Set("a", 2)
		ns.Set("b", 3)
		Expect(ns.Keys()).To(Equal([]string{"a", "b"}))
		Expect(ns.Snapshot()).To(Equal(map[string]float64{"a": 2, "b": 3}))
	})

	It("clones independently", func() {
		ns.Set("x", 1)
		c := ns.Clone()
		c.Set("x", 2)
		c.Set("y", 3)
		Expect(ns.Snapshot()).To(Equal(map[string]float64{"x": 1}))
		Expect(c.Len()).To(Equal(2))
	})
})
