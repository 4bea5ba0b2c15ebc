// Copyright 2009 Peter H. Froehlich. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqlite3

import (
	"errors"
	"math"
	"testing"

	. "github.com/onsi/gomega"
	"gopkg.in/inf.v0"
)

func TestValueConversions(t *testing.T) {
	type want struct {
		integer int64
		real    float64
		text    string
		blob    []byte
		intErr  bool
		realErr bool
		textErr bool
		blobErr bool
	}

	tests := []struct {
		name  string
		value Value
		want  want
	}{
		{"null", Null(), want{blob: []byte{}}},
		{"integer", Int(1000), want{integer: 1000, real: 1000, text: "1000", blobErr: true}},
		{"negative integer", Int(-7), want{integer: -7, real: -7, text: "-7", blobErr: true}},
		{"real", Float(3.25), want{real: 3.25, text: "3.25", intErr: true, blobErr: true}},
		{"numeric text", Text(" 42 "), want{integer: 42, real: 42, text: " 42 ", blobErr: true}},
		{"real text", Text("2.5"), want{real: 2.5, text: "2.5", intErr: true, blobErr: true}},
		{"word", Text("Test"), want{text: "Test", intErr: true, realErr: true, blobErr: true}},
		{"blob", Blob([]byte{0, 1, 2}), want{blob: []byte{0, 1, 2}, intErr: true, realErr: true, textErr: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)

			i, err := tt.value.AsInteger()
			if tt.want.intErr {
				g.Expect(err).To(MatchError(ErrTypeMismatch))
			} else {
				g.Expect(err).NotTo(HaveOccurred())
				g.Expect(i).To(Equal(tt.want.integer))
			}

			f, err := tt.value.AsReal()
			if tt.want.realErr {
				g.Expect(err).To(MatchError(ErrTypeMismatch))
			} else {
				g.Expect(err).NotTo(HaveOccurred())
				g.Expect(f).To(Equal(tt.want.real))
			}

			s, err := tt.value.AsText()
			if tt.want.textErr {
				g.Expect(err).To(MatchError(ErrTypeMismatch))
			} else {
				g.Expect(err).NotTo(HaveOccurred())
				g.Expect(s).To(Equal(tt.want.text))
			}

			b, err := tt.value.AsBlob()
			if tt.want.blobErr {
				g.Expect(err).To(MatchError(ErrTypeMismatch))
			} else {
				g.Expect(err).NotTo(HaveOccurred())
				g.Expect(b).To(Equal(tt.want.blob))
			}

			g.Expect(tt.value.IsNull()).To(Equal(tt.value.Kind() == KindNull))
		})
	}
}

func TestIntegerWidensExactly(t *testing.T) {
	for _, n := range []int64{0, 1, -1, 1 << 52, -(1 << 53), 123456789} {
		f, err := Int(n).AsReal()
		if err != nil {
			t.Fatalf("Int(%d).AsReal() failed: %s", n, err)
		}
		if f != float64(n) {
			t.Errorf("Int(%d).AsReal() = %v", n, f)
		}
	}
}

func TestValueOf(t *testing.T) {
	g := NewWithT(t)

	tests := []struct {
		in   any
		want Value
	}{
		{nil, Null()},
		{int8(-3), Int(-3)},
		{uint32(7), Int(7)},
		{true, Int(1)},
		{false, Int(0)},
		{float32(0.5), Float(0.5)},
		{"text", Text("text")},
		{[]byte(nil), Null()},
		{[]byte{}, Blob(nil)},
		{inf.NewDec(1250, 2), Text("12.50")},
		{Text("as is"), Text("as is")},
	}
	for _, tt := range tests {
		v, err := ValueOf(tt.in)
		g.Expect(err).NotTo(HaveOccurred(), "ValueOf(%#v)", tt.in)
		g.Expect(v.Equal(tt.want)).To(BeTrue(), "ValueOf(%#v) = %v, want %v", tt.in, v, tt.want)
	}

	_, err := ValueOf(uint64(math.MaxUint64))
	g.Expect(err).To(MatchError(ErrOutOfRange))

	_, err = ValueOf(struct{}{})
	g.Expect(err).To(MatchError(ErrTypeMismatch))
}

func TestBlobCopies(t *testing.T) {
	src := []byte{1, 2, 3}
	v := Blob(src)
	src[0] = 9

	b, _ := v.AsBlob()
	if b[0] != 1 {
		t.Fatal("Blob() kept a reference to the caller's buffer")
	}
	b[1] = 9
	if again, _ := v.AsBlob(); again[1] != 2 {
		t.Fatal("AsBlob() handed out the Value's own buffer")
	}
}

func TestAsDecimal(t *testing.T) {
	g := NewWithT(t)

	d, err := Int(1000).AsDecimal()
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(d.Cmp(inf.NewDec(1000, 0))).To(Equal(0))

	d, err = Float(3.1415).AsDecimal()
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(d.String()).To(Equal("3.1415"))

	d, err = Text("0.10").AsDecimal()
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(d.Cmp(inf.NewDec(1, 1))).To(Equal(0))

	d, err = Null().AsDecimal()
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(d.Sign()).To(Equal(0))

	_, err = Text("ten").AsDecimal()
	g.Expect(errors.Is(err, ErrTypeMismatch)).To(BeTrue())

	_, err = Blob([]byte{1}).AsDecimal()
	g.Expect(err).To(MatchError(ErrTypeMismatch))
}

func TestValueString(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Null(), "NULL"},
		{Int(5), "5"},
		{Float(0.25), "0.25"},
		{Text("Schöne Grüße"), "Schöne Grüße"},
		{Blob([]byte{0x55, 0x0a}), "x'550a'"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("%#v.String() = %q, want %q", tt.v, got, tt.want)
		}
	}
}
