// Package board is the adapter for HTML rate board providers (API4).
//
// The board is fetched with an authenticated GET request:
//
//	GET {url}/rates?from=USD&to=EUR
//
// and is expected to carry one element per quoted pair, holding the
// rate either in a nested ".rate" element or in a "data-rate" attribute:
//
//	<tr data-pair="USD-EUR"><td>USD/EUR</td><td class="rate">0,8512</td></tr>
//
// Both decimal comma and decimal point notations are accepted.
// If the board carries a <time datetime="..."> publication stamp,
// boards older than the configured maximum age are rejected as stale.
// The converted amount is rate x amount.
package board
