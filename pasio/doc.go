/*Package pasio segments per-contig coverage counts into piecewise-constant
  runs under a Gamma-Poisson model.

  A segment [start, stop) with total count c and length l is scored by its
  marginal likelihood with the Poisson rate integrated out against a
  Gamma(alpha, beta) prior:

    lgamma(c + alpha) - (c + alpha) * log(l + beta)

  plus a constant creation cost alpha*log(beta) - lgamma(alpha) charged once
  per segment.  SquareSplitter maximizes the total score exactly over a set of
  split candidates in O(m^2); the reducers shrink the candidate set first so
  that long contigs stay tractable.  NewSplitter assembles the three
  supported configurations (exact, slidingwindow, rounds) and Process runs
  one of them over a bedGraph file.

  All coordinates are zero-based and half-open.
*/
package pasio
