// Package anymeta implements neural network modules for
// meta-learning over trajectories: fast-weight linear
// layers whose parameters are generated from a small
// per-task latent vector, a generic feed-forward builder
// with probabilistic outputs, a permutation-invariant set
// encoder, a conditional variational model over actions,
// and a pessimistic twin value function.
package anymeta
