/*Package bedgraph reads coverage intervals from bedGraph files, groups them
  into dense per-contig count arrays, and reads and writes the segment
  records produced from those arrays.

  Input lines have the form

    chrom  start  stop  count

  with zero-based half-open [start, stop) coordinates and a non-negative
  integer count; further columns are ignored.  Blank lines and lines starting
  with '#', "track" or "browser" are skipped.  Intervals must be sorted by
  start within a contig, must not overlap, and each contig must occupy one
  contiguous block of lines.
*/
package bedgraph
