package receipt

import (
	"errors"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalStorage", func() {
	var (
		tmpDir  string
		storage Storage
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		var err error
		storage, err = NewLocalStorage(filepath.Join(tmpDir, "files"))
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Save", func() {
		var (
			name      string
			savedPath string
			err       error
		)

		BeforeEach(func() {
			name = "id-1_receipt.jpg"
		})

		JustBeforeEach(func() {
			savedPath, err = storage.Save(name, []byte("test file content"))
		})

		When("saving succeeds", func() {
			It("should return the path", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(savedPath).To(Equal(name))
			})

			It("should save the file to disk", func() {
				Expect(filepath.Join(tmpDir, "files", name)).To(BeAnExistingFile())
			})
		})

		When("the name tries to leave the directory", func() {
			BeforeEach(func() {
				name = "../../escape.jpg"
			})

			It("should keep the file inside the directory", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(savedPath).To(Equal("escape.jpg"))
				Expect(filepath.Join(tmpDir, "files", "escape.jpg")).To(BeAnExistingFile())
			})
		})

		When("the name is empty", func() {
			BeforeEach(func() {
				name = ""
			})

			It("returns the error", func() {
				Expect(err).To(MatchError(ContainSubstring("invalid file name")))
			})
		})
	})

	Describe("Get", func() {
		When("the file exists", func() {
			BeforeEach(func() {
				_, err := storage.Save("a.png", []byte("png"))
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return its data", func() {
				data, err := storage.Get("a.png")
				Expect(err).NotTo(HaveOccurred())
				Expect(data).To(Equal([]byte("png")))
			})
		})

		When("the file does not exist", func() {
			It("returns ErrNotFound", func() {
				_, err := storage.Get("missing.png")
				Expect(errors.Is(err, ErrNotFound)).To(BeTrue())
			})
		})
	})

	Describe("Delete", func() {
		It("should remove the file", func() {
			_, err := storage.Save("a.png", []byte("png"))
			Expect(err).NotTo(HaveOccurred())
			Expect(storage.Delete("a.png")).To(Succeed())
			Expect(filepath.Join(tmpDir, "files", "a.png")).NotTo(BeAnExistingFile())
		})

		It("returns the error for a missing file", func() {
			Expect(storage.Delete("missing.png")).To(MatchError(ContainSubstring("deleting file")))
		})
	})
})
