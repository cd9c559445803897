// Package sim computes successive world states for the producer.
//
// A Scene describes the models (position, rotation axis, motor speed, linear
// velocity) and the gear meshes between them. The Kinematic stepper advances
// a snapshot by a time step: motor-driven models spin at their commanded
// speed, gear-driven models follow their driver through the pitch radius
// ratio, and free models drift along their velocity.
//
// Inbound client commands are queued in an Inbox and applied at the start
// of the next step.
package sim
