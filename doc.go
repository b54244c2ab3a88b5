// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package srm is the overall repository for a single-neuron Spike Response
Model simulator with escape noise, and the spike train analysis that goes
with it.

This top-level of the repository has no functional code -- everything is
organized into the following sub-packages:

* kernel: the response kernels of the model (Heaviside, Alpha input current,
Eta refractory reset, Kappa membrane filter and the Epsilon postsynaptic
potential, numerically and in closed form).

* integ: adaptive Gauss-Legendre quadrature with break points, used for the
Epsilon kernel and the convolution form of the input term.

* srm: the neuron itself: membrane potential, escape probability and the
discrete-time simulation loop, with an injectable random source.

* inputs: random presynaptic spike train generation and binning of spike
trains into count matrices.

* analysis: pairwise correlation, cross-correlation and Fano factor of spike
count matrices.

* vplot: plots of potential traces, input rasters and analysis results.

* tracelog: potential trace and spike time tables, written as tab-separated
values.

* store: a SQLite archive of simulation runs.

* config, logging: configuration files and leveled logging for the srm
command in cmd/srm.
*/
package srm
