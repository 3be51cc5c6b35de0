/*
pasio segments bedGraph coverage into piecewise-constant runs under a
Gamma-Poisson model and writes one line per segment:

  chrom  start  stop  mean_count  length  log_marginal_likelihood

Options can also be read from a YAML file with -config; flags given on the
command line take precedence over the file.  Keys are the snake_case option
names, e.g.

  alpha: 5
  beta: 1
  algorithm: rounds
  window_size: 2500
  window_shift: 1250

Sample usage:
pasio \
    -alpha 5 -beta 1 \
    -algorithm rounds -window-size 2500 -window-shift 1250 \
    -out segments.tsv \
    coverage.bedGraph
*/
package main
