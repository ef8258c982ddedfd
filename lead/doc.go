// Package lead turns a plan-signup form into a messaging deep link.
//
// The catalog mirrors the public pricing table. A Request is validated with
// the same rules the signup form shows to visitors, and the resulting
// message is addressed to the sales number through a wa.me link.
//
// Nothing in this package touches sessions or credentials.
package lead
