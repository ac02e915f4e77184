/*
Package blueprint reads and builds pipeline definition files.

A blueprint is a YAML document listing the pipeline config, the processes
(by registered type), clusters with their port mappings, and the connections
between ports. Build turns it into a pipeline through a process factory.

	name: doubler
	config:
	  _edge:capacity: "4"
	processes:
	  - name: src
	    type: numbers
	    config: {start: "1", end: "10"}
	  - name: print
	    type: print_number
	clusters:
	  - name: times2
	    processes:
	      - name: two
	        type: const_number
	        config: {value: "2"}
	      - name: mult
	        type: multiplication
	    inputs:
	      - {port: factor, to: mult.factor2}
	    outputs:
	      - {port: product, to: mult.product}
	    connections:
	      - {from: two.number, to: mult.factor1}
	connections:
	  - {from: src.number, to: times2.factor}
	  - {from: times2.product, to: print.number}

Build performs only registration and connection; setting the pipeline up is
left to the caller.
*/
package blueprint
