package extract

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/receipt-fields/internal/fragment"
)

var _ = Describe("VATBreakdown", func() {
	var (
		fragments []fragment.Fragment
		breakdown Breakdown
	)

	JustBeforeEach(func() {
		breakdown = VATBreakdown(fragments, DefaultConfig())
	})

	When("rate and amount share a fragment", func() {
		BeforeEach(func() {
			fragments = texts("KDV %18 *22,50")
		})

		It("should record the pair", func() {
			Expect(breakdown.Map()).To(Equal(map[string]float64{"18": 22.50}))
		})
	})

	When("the same rate is reported twice", func() {
		BeforeEach(func() {
			fragments = texts("%8 5,00", "ELMA", "%8 3,25")
		})

		It("should sum the amounts", func() {
			amount, ok := breakdown.Amount("8")
			Expect(ok).To(BeTrue())
			Expect(amount).To(Equal(8.25))
		})
	})

	When("the amount is the next fragment", func() {
		BeforeEach(func() {
			fragments = texts("%18", "22,50")
		})

		It("should pair the label with it", func() {
			Expect(breakdown.Map()).To(Equal(map[string]float64{"18": 22.50}))
		})
	})

	When("the amount is split across fragments on the same row", func() {
		BeforeEach(func() {
			fragments = layout(
				placed{text: "%18", x: 20, y: 300, w: 40},
				placed{text: "KDV", x: 0, y: 301, w: 15},
				placed{text: "*22", x: 150, y: 302, w: 30},
				placed{text: ",50", x: 181, y: 303, w: 25},
				placed{text: "%8", x: 20, y: 340, w: 30},
				placed{text: "4,00", x: 150, y: 341, w: 40},
			)
		})

		It("should rejoin the value from the fragments to the right", func() {
			amount, _ := breakdown.Amount("18")
			Expect(amount).To(Equal(22.50))
		})

		It("should not borrow from other rows", func() {
			amount, _ := breakdown.Amount("8")
			Expect(amount).To(Equal(4.0))
		})

		It("should keep rates in reading order", func() {
			Expect(breakdown.Rates()).To(Equal([]string{"18", "8"}))
		})
	})

	When("a '*' fragment follows the rate label", func() {
		BeforeEach(func() {
			fragments = texts("%18", "*", "22,50")
		})

		It("should treat '*' and the amount as one value", func() {
			Expect(breakdown.Map()).To(Equal(map[string]float64{"18": 22.50}))
		})
	})

	When("both the next-fragment and the '*' strategies see the same value", func() {
		BeforeEach(func() {
			fragments = texts("KDV %18 *", "22,50")
		})

		It("should sum both detections", func() {
			Expect(breakdown.Map()).To(Equal(map[string]float64{"18": 45.00}))
		})
	})

	When("a '*' split value has no rate nearby", func() {
		BeforeEach(func() {
			fragments = texts("TOPLAM *", "125,00")
		})

		It("should drop it", func() {
			Expect(breakdown.Len()).To(Equal(0))
		})
	})

	When("the amount does not parse", func() {
		BeforeEach(func() {
			fragments = texts("%18 1.234,56")
		})

		It("should drop the pair", func() {
			Expect(breakdown.Len()).To(Equal(0))
		})
	})

	When("a label has no amount anywhere", func() {
		BeforeEach(func() {
			fragments = texts("%18", "TEŞEKKÜRLER")
		})

		It("should leave the breakdown empty", func() {
			Expect(breakdown.Len()).To(Equal(0))
		})
	})

	Describe("ordering", func() {
		It("should give the same sums for any order of independent fragments", func() {
			forward := VATBreakdown(texts("%8 5,00", "%18 10,00", "%8 3,25", "%1 0,40"), DefaultConfig())
			reversed := VATBreakdown(texts("%1 0,40", "%8 3,25", "%18 10,00", "%8 5,00"), DefaultConfig())
			Expect(forward.Map()).To(Equal(reversed.Map()))
		})
	})
})

var _ = Describe("Breakdown", func() {
	var b Breakdown

	BeforeEach(func() {
		b = Breakdown{}
		b.Add("18", mustAmount("22,50"))
		b.Add("8", mustAmount("5,00"))
		b.Add("18", mustAmount("1,50"))
	})

	It("should keep first-seen order", func() {
		Expect(b.Rates()).To(Equal([]string{"18", "8"}))
	})

	It("should render display pairs", func() {
		Expect(b.String()).To(Equal("%18: 24.00, %8: 5.00"))
	})

	It("should merge another breakdown additively", func() {
		other := Breakdown{}
		other.Add("1", mustAmount("0,10"))
		other.Add("8", mustAmount("3,25"))
		b.Merge(other)
		Expect(b.Rates()).To(Equal([]string{"18", "8", "1"}))
		Expect(b.Map()).To(Equal(map[string]float64{"18": 24, "8": 8.25, "1": 0.1}))
	})

	It("should encode an ordered object of numeric amounts", func() {
		data, err := json.Marshal(Record{VATBreakdown: b})
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(`"vat_breakdown":{"18":24.00,"8":5.00}`))
	})

	It("should encode an empty breakdown as an empty object", func() {
		data, err := json.Marshal(Breakdown{})
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("{}"))
	})

	It("should decode null and reject a list", func() {
		var decoded Breakdown
		Expect(json.Unmarshal([]byte("null"), &decoded)).To(Succeed())
		Expect(decoded.Len()).To(Equal(0))
		Expect(json.Unmarshal([]byte(`[{"rate":"18","amount":"1"}]`), &decoded)).NotTo(Succeed())
	})

	It("should survive a JSON round trip in order", func() {
		data, err := b.MarshalJSON()
		Expect(err).NotTo(HaveOccurred())

		var decoded Breakdown
		Expect(decoded.UnmarshalJSON(data)).To(Succeed())
		Expect(decoded.Rates()).To(Equal(b.Rates()))
		Expect(decoded.Map()).To(Equal(b.Map()))
	})

	It("should report unknown rates as missing", func() {
		_, ok := b.Amount("20")
		Expect(ok).To(BeFalse())
	})
})
