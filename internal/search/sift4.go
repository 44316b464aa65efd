package search

// Sift4 returns the approximate edit distance between a and b using the
// simple Sift4 variant. maxOffset bounds how far ahead the algorithm looks
// for a matching character after a mismatch.
func Sift4(a, b string, maxOffset int) int {
	s1, s2 := []rune(a), []rune(b)
	l1, l2 := len(s1), len(s2)
	if l1 == 0 {
		return l2
	}
	if l2 == 0 {
		return l1
	}

	c1, c2 := 0, 0
	lcss, localCS := 0, 0
	for c1 < l1 && c2 < l2 {
		if s1[c1] == s2[c2] {
			localCS++
		} else {
			lcss += localCS
			localCS = 0
			if c1 != c2 {
				c1 = max(c1, c2)
				c2 = c1
			}
			for i := 0; i < maxOffset && (c1+i < l1 || c2+i < l2); i++ {
				if c1+i < l1 && c2 < l2 && s1[c1+i] == s2[c2] {
					c1 += i
					localCS++
					break
				}
				if c2+i < l2 && c1 < l1 && s1[c1] == s2[c2+i] {
					c2 += i
					localCS++
					break
				}
			}
		}
		c1++
		c2++
	}
	lcss += localCS

	return max(max(l1, l2)-lcss, 0)
}

// Similarity returns 1 minus the Sift4 distance normalized by the longer
// input, so identical strings score 1 and unrelated ones approach 0.
func Similarity(a, b string) float64 {
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 1
	}
	return 1 - float64(Sift4(a, b, defaultMaxOffset))/float64(longest)
}
