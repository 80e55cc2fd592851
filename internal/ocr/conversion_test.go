package ocr

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func samplePNG(w, h int) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 7), G: 120, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	Expect(png.Encode(&buf, img)).To(Succeed())
	return buf.Bytes()
}

func decodePNG(data []byte) image.Image {
	img, err := png.Decode(bytes.NewReader(data))
	Expect(err).NotTo(HaveOccurred())
	return img
}

var _ = Describe("prepareImageData", func() {
	var (
		input []byte
		opts  Options
		out   []byte
		err   error
	)

	BeforeEach(func() {
		input = samplePNG(40, 20)
		opts = Options{}
	})

	JustBeforeEach(func() {
		out, err = prepareImageData(input, "image/png", opts)
	})

	When("no preprocessing is requested", func() {
		It("should return a PNG of the same size", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(decodePNG(out).Bounds().Size()).To(Equal(image.Pt(40, 20)))
		})
	})

	When("the image exceeds the max size", func() {
		BeforeEach(func() {
			opts.MaxImageSize = 10
		})

		It("should shrink it keeping the aspect ratio", func() {
			Expect(decodePNG(out).Bounds().Size()).To(Equal(image.Pt(10, 5)))
		})
	})

	When("binarizing", func() {
		BeforeEach(func() {
			opts.Preprocess = PreprocessBinarize
		})

		It("should leave only two gray levels", func() {
			img := decodePNG(out)
			levels := map[uint32]bool{}
			b := img.Bounds()
			for y := b.Min.Y; y < b.Max.Y; y++ {
				for x := b.Min.X; x < b.Max.X; x++ {
					r, _, _, _ := img.At(x, y).RGBA()
					levels[r>>8] = true
				}
			}
			Expect(len(levels)).To(BeNumerically("<=", 2))
		})
	})

	When("converting to grayscale", func() {
		BeforeEach(func() {
			opts.Preprocess = PreprocessGrayscale
		})

		It("should equalize the channels", func() {
			r, g, b, _ := decodePNG(out).At(3, 3).RGBA()
			Expect(r).To(Equal(g))
			Expect(g).To(Equal(b))
		})
	})

	When("the data is not an image", func() {
		BeforeEach(func() {
			input = []byte("not an image")
		})

		It("returns the error", func() {
			Expect(err).To(MatchError(ContainSubstring("unsupported image format")))
		})
	})
})

var _ = Describe("isHEICFormat", func() {
	It("should detect the heic brand", func() {
		data := append([]byte{0, 0, 0, 24}, []byte("ftypheic0000")...)
		Expect(isHEICFormat(data)).To(BeTrue())
	})

	It("should reject short data", func() {
		Expect(isHEICFormat([]byte("ftyp"))).To(BeFalse())
	})

	It("should reject other containers", func() {
		data := append([]byte{0, 0, 0, 24}, []byte("ftypisom0000")...)
		Expect(isHEICFormat(data)).To(BeFalse())
	})
})

var _ = Describe("ParsePreprocess", func() {
	DescribeTable("modes",
		func(in string, expected Preprocess, valid bool) {
			p, err := ParsePreprocess(in)
			if !valid {
				Expect(err).To(HaveOccurred())
				return
			}
			Expect(err).NotTo(HaveOccurred())
			Expect(p).To(Equal(expected))
		},
		Entry("empty", "", PreprocessNone, true),
		Entry("none", "none", PreprocessNone, true),
		Entry("upper case", "Grayscale", PreprocessGrayscale, true),
		Entry("contrast", "contrast", PreprocessContrast, true),
		Entry("binarize", "binarize", PreprocessBinarize, true),
		Entry("unknown", "sepia", Preprocess(""), false),
	)
})

var _ = Describe("tesseractLanguages", func() {
	It("should map ISO codes to traineddata names", func() {
		Expect(tesseractLanguages([]string{"tr", "EN"})).To(Equal([]string{"tur", "eng"}))
	})

	It("should pass unknown names through", func() {
		Expect(tesseractLanguages([]string{"osd"})).To(Equal([]string{"osd"}))
	})

	It("should default to English", func() {
		Expect(tesseractLanguages(nil)).To(Equal([]string{"eng"}))
	})
})

var _ = Describe("languageHint", func() {
	It("should name the languages", func() {
		Expect(languageHint([]string{"tr", "en"})).To(Equal("Turkish and English"))
	})

	It("should fall back when nothing is configured", func() {
		Expect(languageHint(nil)).To(Equal("any language"))
	})
})
