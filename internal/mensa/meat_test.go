package mensa

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ClassifyMeat", func() {
	var defaultConfig MeatMarkerConfig

	BeforeEach(func() {
		defaultConfig = DefaultMeatMarkerConfig()
	})

	Context("with single markers", func() {
		It("should classify beef from R", func() {
			Expect(ClassifyMeat([]string{"R"}, defaultConfig)).To(Equal([]MeatType{MeatBeef}))
		})

		It("should classify pork from S", func() {
			Expect(ClassifyMeat([]string{"S"}, defaultConfig)).To(Equal([]MeatType{MeatPork}))
		})

		It("should classify vegan from either casing", func() {
			Expect(ClassifyMeat([]string{"Vegan"}, defaultConfig)).To(Equal([]MeatType{MeatVegan}))
			Expect(ClassifyMeat([]string{"vegan"}, defaultConfig)).To(Equal([]MeatType{MeatVegan}))
		})
	})

	Context("with additive markers mixed in", func() {
		It("should ignore additive numbers", func() {
			Expect(ClassifyMeat([]string{"S", "2", "3"}, defaultConfig)).To(Equal([]MeatType{MeatPork}))
		})

		It("should yield nothing for additives only", func() {
			Expect(ClassifyMeat([]string{"1", "9"}, defaultConfig)).To(BeEmpty())
		})
	})

	Context("with multiple meat markers", func() {
		It("should return all matches in canonical order", func() {
			Expect(ClassifyMeat([]string{"G", "R"}, defaultConfig)).To(Equal([]MeatType{MeatBeef, MeatPoultry}))
		})

		It("should deduplicate repeated markers", func() {
			Expect(ClassifyMeat([]string{"F", "A"}, defaultConfig)).To(Equal([]MeatType{MeatFish}))
		})
	})

	Context("with custom marker config", func() {
		It("should match the custom sets", func() {
			config := MeatMarkerConfig{
				VeganMarkers: []string{"V+"},
			}
			Expect(ClassifyMeat([]string{"V+"}, config)).To(Equal([]MeatType{MeatVegan}))
			Expect(ClassifyMeat([]string{"Vegan"}, config)).To(BeEmpty())
		})
	})
})

var _ = Describe("ParseCanteen", func() {
	It("should accept known canteens", func() {
		c, err := ParseCanteen("academica")
		Expect(err).NotTo(HaveOccurred())
		Expect(c).To(Equal(CanteenAcademica))
		Expect(c.DisplayName()).To(Equal("Mensa Academica"))
		Expect(c.MenuPath()).To(Equal("/speiseplaene/academica-w.html"))
	})

	It("should reject unknown canteens", func() {
		_, err := ParseCanteen("hogwarts")
		Expect(err).To(HaveOccurred())
	})
})
