package morris

import (
	"context"
	"errors"
	"math"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/sensim/internal/table"
)

func TestMorris(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Morris Suite")
}

var _ = Describe("statistics", func() {
	It("computes a cumulative mean in path order", func() {
		Expect(RunningAverage([]float64{2, 4, 0, 6})).To(Equal([]float64{2, 3, 2, 3}))
		Expect(RunningAverage(nil)).To(BeEmpty())
	})

	It("summarises effects", func() {
		mu, muStar, sigma := Summarise([]float64{1, -3, 2})
		Expect(mu).To(BeNumerically("~", 0, 1e-12))
		Expect(muStar).To(BeNumerically("~", 2, 1e-12))
		Expect(sigma).To(BeNumerically("~", math.Sqrt(7), 1e-12))
	})

	It("leaves sigma undefined for a single path", func() {
		mu, muStar, sigma := Summarise([]float64{-4})
		Expect(mu).To(Equal(-4.0))
		Expect(muStar).To(Equal(4.0))
		Expect(math.IsNaN(sigma)).To(BeTrue())
	})

	It("treats NaN runs as constant", func() {
		Expect(constant([]float64{math.NaN(), math.NaN()})).To(BeTrue())
		Expect(constant([]float64{1, 1, 1.0000001})).To(BeFalse())
		Expect(constant(nil)).To(BeTrue())
	})
})

var _ = Describe("response columns", func() {
	It("round-trips variable and year", func() {
		key := ResponseKey{Variable: "Wheat.Yield", Year: 2001}
		Expect(key.ColumnName()).To(Equal("Wheat.Yield2001"))
		back, err := ParseResponseColumn(key.ColumnName())
		Expect(err).NotTo(HaveOccurred())
		Expect(back).To(Equal(key))
	})

	DescribeTable("rejects malformed names",
		func(name string) {
			_, err := ParseResponseColumn(name)
			Expect(err).To(HaveOccurred())
		},
		Entry("too short", "2001"),
		Entry("no year", "YieldABCD"),
	)

	It("parses simulation names", func() {
		k, ok := SimulationIndex("Simulation12")
		Expect(ok).To(BeTrue())
		Expect(k).To(Equal(12))
		for _, bad := range []string{"Simulation", "Simulation0", "Sim1", "Simulationx"} {
			_, ok := SimulationIndex(bad)
			Expect(ok).To(BeFalse(), bad)
		}
	})
})

var _ = Describe("Experiment", func() {
	var exp *Experiment

	BeforeEach(func() {
		exp = twoParamExperiment(4)
	})

	It("defaults to 200 paths", func() {
		Expect(NewExperiment("x", "Base").NumPaths).To(Equal(DefaultNumPaths))
		Expect(DefaultNumPaths).To(Equal(200))
	})

	It("names its result tables after itself", func() {
		Expect(exp.ElementaryEffectsTable()).To(Equal("SensElementaryEffects"))
		Expect(exp.MuStarTable()).To(Equal("SensMuStar"))
		Expect(exp.DesignTable()).To(Equal("SensDesign"))
	})

	DescribeTable("validation",
		func(mutate func(*Experiment)) {
			mutate(exp)
			Expect(errors.Is(exp.Validate(), ErrConfiguration)).To(BeTrue())
		},
		Entry("no name", func(e *Experiment) { e.Name = "" }),
		Entry("no paths", func(e *Experiment) { e.NumPaths = 0 }),
		Entry("no parameters", func(e *Experiment) { e.Parameters = nil }),
		Entry("missing path", func(e *Experiment) { e.Parameters[0].Path = "" }),
		Entry("duplicate", func(e *Experiment) { e.Parameters[1].Name = "P1" }),
		Entry("inverted bounds", func(e *Experiment) { e.Parameters[0].LowerBound = 2 }),
	)

	It("round-trips its editable tables", func() {
		tables := exp.Tables()
		Expect(tables).To(HaveLen(2))
		Expect(tables[0].Get(0, "Property")).To(Equal("Number of paths:"))

		tables[0].Set(0, "Value", 12)
		tables[1].AddRow(nil, nil, nil, nil)
		tables[1].AddRow("P3", "[M].mass", 1.0, 2.0)

		Expect(exp.SetTables(tables)).To(Succeed())
		Expect(exp.NumPaths).To(Equal(12))
		Expect(exp.Parameters).To(HaveLen(3))
		Expect(exp.Parameters[2]).To(Equal(Parameter{Name: "P3", Path: "[M].mass", LowerBound: 1, UpperBound: 2}))
	})

	It("rejects a non-integer path count", func() {
		tables := exp.Tables()
		tables[0].Set(0, "Value", "many")
		Expect(errors.Is(exp.SetTables(tables), ErrConfiguration)).To(BeTrue())
	})

	It("lists factor groupings", func() {
		exp.Years = []int{2000, 2001}
		groups := exp.Factors()
		Expect(groups).To(HaveLen(2*2*2 + 2))
		Expect(groups[0]).To(Equal(FactorGroup{Kind: "ParameterxYear", Name: "P12000", Columns: []string{"Param", "Year"}, Values: []string{"P1", "2000"}}))
		Expect(groups[1]).To(Equal(FactorGroup{Kind: "Year", Name: "2000", Columns: []string{"Year"}, Values: []string{"2000"}}))
		Expect(groups[4]).To(Equal(FactorGroup{Kind: "Parameter", Name: "P1", Columns: []string{"Param"}, Values: []string{"P1"}}))
	})
})

var _ = Describe("GenerateDesign", func() {
	params := []Parameter{{Name: "P1", Path: "[M].length", LowerBound: 0, UpperBound: 1}, {Name: "P2", Path: "M.damping", LowerBound: 10, UpperBound: 20}}

	It("builds one combination per row", func() {
		d, err := GenerateDesign(context.Background(), &stubEngine{design: table4()}, params, 4)
		Expect(err).NotTo(HaveOccurred())
		Expect(d.Combinations).To(HaveLen(4))
		Expect(d.Names).To(Equal([]string{"Simulation1", "Simulation2", "Simulation3", "Simulation4"}))
		Expect(d.Combinations[2]).To(Equal(Combination{
			{Name: "P1", Path: "[M].length", Value: 0.5},
			{Name: "P2", Path: "M.damping", Value: 15},
		}))
	})

	It("rejects a design missing a parameter column", func() {
		t := table.New("Design", "P1")
		t.AddRow(0.5)
		_, err := GenerateDesign(context.Background(), &stubEngine{design: t}, params, 1)
		Expect(errors.Is(err, ErrEngine)).To(BeTrue())
	})

	It("rejects non-numeric cells", func() {
		t := table.New("Design", "P1", "P2")
		t.AddRow(0.5, "NaN?")
		_, err := DesignFromMatrix(params, 1, t)
		Expect(errors.Is(err, ErrEngine)).To(BeTrue())
	})

	It("rejects a stored design with columns the experiment no longer has", func() {
		t := table.New("Design", "P1", "P2", "P3")
		t.AddRow(0.5, 15.0, 1.0)
		_, err := DesignFromMatrix(params, 1, t)
		Expect(errors.Is(err, ErrEngine)).To(BeTrue())
		var ee *EngineError
		Expect(errors.As(err, &ee)).To(BeTrue())
		Expect(ee.Op).To(Equal("load design"))
		Expect(err.Error()).To(ContainSubstring(`"P3"`))
	})

	It("keeps existing engine errors intact", func() {
		cause := NewEngineError("generate design", errors.New("timeout"))
		_, err := GenerateDesign(context.Background(), &stubEngine{designErr: cause}, params, 1)
		Expect(err).To(BeIdenticalTo(cause))
	})
})
