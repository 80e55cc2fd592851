package extract

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/receipt-fields/internal/fragment"
)

var _ = Describe("CompanyName", func() {
	var (
		cfg       Config
		fragments []fragment.Fragment
		name      string
		found     bool
	)

	BeforeEach(func() {
		cfg = DefaultConfig()
	})

	JustBeforeEach(func() {
		name, found = CompanyName(fragments, cfg)
	})

	When("a legal-entity marker appears in the first lines", func() {
		BeforeEach(func() {
			fragments = texts("MIGROS", "  Migros Tic. A.Ş.  ", "ISTANBUL")
		})

		It("should return the trimmed marker line", func() {
			Expect(found).To(BeTrue())
			Expect(name).To(Equal("Migros Tic. A.Ş."))
		})
	})

	When("the marker is an English abbreviation", func() {
		BeforeEach(func() {
			fragments = texts("WELCOME", "Smith & Co.", "LONDON")
		})

		It("should match it", func() {
			Expect(name).To(Equal("Smith & Co."))
		})
	})

	When("the marker is written without the Turkish dot", func() {
		BeforeEach(func() {
			fragments = texts("BIM", "BIM BIRLESIK MAGAZALAR TIC.")
		})

		It("should still match", func() {
			Expect(name).To(Equal("BIM BIRLESIK MAGAZALAR TIC."))
		})
	})

	When("the marker only appears after the scan limit", func() {
		BeforeEach(func() {
			fragments = texts("KIOSK 24", "a", "b", "c", "d", "ACME LTD.")
		})

		It("should fall back to the first fragment", func() {
			Expect(name).To(Equal("KIOSK 24"))
		})
	})

	When("two marker lines exist", func() {
		BeforeEach(func() {
			fragments = texts("ACME LTD.", "ACME SAN. TIC.")
		})

		It("should keep the first", func() {
			Expect(name).To(Equal("ACME LTD."))
		})
	})

	When("there are no fragments", func() {
		BeforeEach(func() {
			fragments = nil
		})

		It("should report absent", func() {
			Expect(found).To(BeFalse())
		})
	})

	When("the first fragment is blank and nothing matches", func() {
		BeforeEach(func() {
			fragments = texts("   ", "KIOSK")
		})

		It("should report absent", func() {
			Expect(found).To(BeFalse())
		})
	})
})

var _ = Describe("ReceiptDate", func() {
	It("should return the first date-shaped substring", func() {
		date, ok := ReceiptDate(texts("ACME", "TARIH: 18/09/2024 SAAT 14:02", "01.01.2023"), DefaultConfig())
		Expect(ok).To(BeTrue())
		Expect(date).To(Equal("18/09/2024"))
	})

	It("should accept two-digit years and dashes", func() {
		date, ok := ReceiptDate(texts("5-3-24"), DefaultConfig())
		Expect(ok).To(BeTrue())
		Expect(date).To(Equal("5-3-24"))
	})

	It("should report absent without a date", func() {
		_, ok := ReceiptDate(texts("TOPLAM", "125,00"), DefaultConfig())
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("ReceiptNumber", func() {
	var (
		fragments []fragment.Fragment
		number    string
		found     bool
	)

	JustBeforeEach(func() {
		number, found = ReceiptNumber(fragments, DefaultConfig())
	})

	When("keyword and digits share a fragment", func() {
		BeforeEach(func() {
			fragments = texts("ACME", "FİŞ NO: 0045", "TOPLAM")
		})

		It("should take the digit run", func() {
			Expect(number).To(Equal("0045"))
		})
	})

	When("the keyword is lower case", func() {
		BeforeEach(func() {
			fragments = texts("fiş no 77")
		})

		It("should match case-insensitively", func() {
			Expect(number).To(Equal("77"))
		})
	})

	When("the number is in the next fragment", func() {
		BeforeEach(func() {
			fragments = texts("NO", "4521")
		})

		It("should take the next fragment", func() {
			Expect(found).To(BeTrue())
			Expect(number).To(Equal("4521"))
		})
	})

	When("the next fragment is not all digits", func() {
		BeforeEach(func() {
			fragments = texts("FATURA NO", "A-12")
		})

		It("should report absent", func() {
			Expect(found).To(BeFalse())
		})
	})

	When("the keyword is the last fragment", func() {
		BeforeEach(func() {
			fragments = texts("ACME", "NO")
		})

		It("should report absent without failing", func() {
			Expect(found).To(BeFalse())
		})
	})

	When("NO is part of a longer word", func() {
		BeforeEach(func() {
			fragments = texts("NOT", "123")
		})

		It("should not trigger", func() {
			Expect(found).To(BeFalse())
		})
	})

	When("phone and tax numbers precede the receipt number", func() {
		BeforeEach(func() {
			fragments = texts("MIGROS TİC. A.Ş.", "TEL NO: 02125551234", "VERGİ NO 1234567890", "18/09/2024", "FİŞ NO: 0045", "TOPLAM 125,00")
		})

		It("should not take digits after a bare NO", func() {
			Expect(found).To(BeTrue())
			Expect(number).To(Equal("0045"))
		})
	})

	When("a bare NO shares a fragment with digits", func() {
		BeforeEach(func() {
			fragments = texts("TEL NO: 02125551234")
		})

		It("should report absent", func() {
			Expect(found).To(BeFalse())
		})
	})

	When("a second receipt number follows", func() {
		BeforeEach(func() {
			fragments = texts("FİŞ NO 12", "FİŞ NO 99")
		})

		It("should keep the first", func() {
			Expect(number).To(Equal("12"))
		})
	})
})

var _ = Describe("GrandTotal", func() {
	It("should take the rightmost numeral of the keyword fragment", func() {
		total, ok := GrandTotal(texts("TOPLAM 3 ADET *125,00"), DefaultConfig())
		Expect(ok).To(BeTrue())
		Expect(total.InexactFloat64()).To(Equal(125.0))
	})

	It("should fall back to the next fragment", func() {
		total, ok := GrandTotal(texts("TOPLAM", "*78,50"), DefaultConfig())
		Expect(ok).To(BeTrue())
		Expect(total.InexactFloat64()).To(Equal(78.50))
	})

	It("should ignore subtotals", func() {
		total, ok := GrandTotal(texts("ARA TOPLAM 100,00", "TOPLAM 118,00"), DefaultConfig())
		Expect(ok).To(BeTrue())
		Expect(total.InexactFloat64()).To(Equal(118.0))
	})

	It("should ignore VAT totals", func() {
		_, ok := GrandTotal(texts("TOPLAM KDV 18,00"), DefaultConfig())
		Expect(ok).To(BeFalse())
	})

	It("should keep the first total", func() {
		total, _ := GrandTotal(texts("TOTAL 10,00", "TOTAL 20,00"), DefaultConfig())
		Expect(total.InexactFloat64()).To(Equal(10.0))
	})

	It("should report absent when nothing parses", func() {
		_, ok := GrandTotal(texts("TOPLAM", "TEŞEKKÜRLER"), DefaultConfig())
		Expect(ok).To(BeFalse())
	})

	It("should report absent when the keyword is last", func() {
		_, ok := GrandTotal(texts("TOPLAM"), DefaultConfig())
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("VATTotal", func() {
	It("should parse the last numeral with a decimal comma", func() {
		vat, ok := VATTotal(texts("TOPKDV *22,50"), DefaultConfig())
		Expect(ok).To(BeTrue())
		Expect(vat.InexactFloat64()).To(Equal(22.50))
	})

	It("should skip malformed numerals and keep scanning", func() {
		vat, ok := VATTotal(texts("TOPKDV 1.234,56", "TOPKDV 3,10"), DefaultConfig())
		Expect(ok).To(BeTrue())
		Expect(vat.InexactFloat64()).To(Equal(3.10))
	})

	It("should report absent without digits", func() {
		_, ok := VATTotal(texts("TOPKDV", "22,50"), DefaultConfig())
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("parseAmount", func() {
	DescribeTable("numerals",
		func(in string, expected float64, valid bool) {
			d, ok := parseAmount(in)
			Expect(ok).To(Equal(valid))
			if valid {
				Expect(d.InexactFloat64()).To(Equal(expected))
			}
		},
		Entry("decimal comma", "78,50", 78.50, true),
		Entry("decimal point", "78.50", 78.50, true),
		Entry("integer", "125", 125.0, true),
		Entry("thousands and comma", "1.234,56", 0.0, false),
		Entry("separator only", ",", 0.0, false),
		Entry("letters", "12a", 0.0, false),
	)
})
