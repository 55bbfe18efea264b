/*
Package types provides the shared type definitions for the TeamFlow engine.

types is the lowest-level package with no internal dependencies. It defines
the type contracts shared by registry, allocation, formation, negotiation
and service so that the upper packages never need to import each other.

# Core types

  - AgentProfile: capability proficiencies, availability, load, cost,
    performance history and collaboration score of a single agent
  - Role: required/preferred capabilities with a minimum performance
    threshold and a priority
  - TaskRequirement: what a caller needs a team for (capabilities,
    specializations, size bounds, complexity, deadline)
  - Team: a formed team with member assignments, status and performance
    metrics
  - Negotiation: a bounded multi-party exchange of proposals
  - Proposal: a single candidate resolution inside a negotiation
  - Error / ErrorCode: structured error taxonomy (NOT_FOUND,
    INVALID_TRANSITION, NOT_A_PARTICIPANT, ...)

All proficiency, availability, load and collaboration values clamp to [0,1];
use Clamp01 when mutating them.
*/
package types
